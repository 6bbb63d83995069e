package main

import (
	"dms/src/db"
	"dms/src/middlewares"
	"dms/src/models"
	"dms/src/types"
	"dms/src/utils"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB   *gorm.DB
	Mock sqlmock.Sqlmock
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func (s *TestSuite) SetupSuite() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("ticketdate", ticketDateValidatorFunc)
	}
	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = mock
}

// testAuth stands in for the session middleware and stamps a fixed user
// onto every request.
func testAuth(user *models.User) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("id", user.Identifier)
		ctx.Set("name", user.Name)
		ctx.Set("role", user.Role)
		ctx.Set("branch", user.Branch)
		ctx.Set("user", user)
	}
}

func ticketRouter(user *models.User) *gin.Engine {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuth(user))
	ticketHandlers(apiv1)
	return router
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestStagePermissionGate() {
	clerk := &models.User{
		Identifier:  "u-1",
		Name:        "Passing Clerk",
		Role:        types.ROLE_STAFF,
		Branch:      "all",
		Permissions: types.Permissions{types.PERM_PASSING_DETAILS},
	}
	router := ticketRouter(clerk)

	s.Run("Should refuse a stage the user has no grant for", func() {
		body, _ := json.Marshal(types.GatePassRequestBody{DeliveryAmount: 92500})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/tickets/t-1/gate-pass", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})
}

func (s *TestSuite) TestDateValidation() {
	clerk := &models.User{
		Identifier:  "u-2",
		Name:        "Registration Clerk",
		Role:        types.ROLE_STAFF,
		Branch:      "all",
		Permissions: types.Permissions{types.PERM_REGISTRATION_DETAILS},
	}
	router := ticketRouter(clerk)

	s.Run("Should reject a future registration date", func() {
		body, _ := json.Marshal(types.RegistrationDetailsRequestBody{
			RegistrationDate: "2099-01-01",
			VehicleNumber:    "MH04AB1234",
		})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/tickets/t-1/registration", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		errMsg := gjson.Get(string(rbytes), "error").String()
		assert.NotEmpty(s.T(), errMsg)
	})

	s.Run("Should reject a registration date in the wrong format", func() {
		body, _ := json.Marshal(types.RegistrationDetailsRequestBody{
			RegistrationDate: "10-06-2025",
			VehicleNumber:    "MH04AB1234",
		})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/tickets/t-1/registration", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.NotEmpty(s.T(), gjson.Get(string(rbytes), "error").String())
	})
}

func (s *TestSuite) TestTicketListing() {
	columns := []string{"id", "identifier", "status", "model", "variant", "colour", "location"}

	s.Run("Should return every ticket for a privileged user", func() {
		admin := &models.User{Identifier: "u-3", Name: "Admin", Role: types.ROLE_ADMIN, Branch: "all"}
		router := ticketRouter(admin)

		s.Mock.ExpectQuery(`SELECT (.+) FROM "tickets"`).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(1, "t-1", "open", "Activa", "STD", "Red", "Manpada").
				AddRow(2, "t-2", "allocated", "Shine", "DLX", "Black", "Ovala"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/tickets", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		data := gjson.Get(string(rbytes), "data")
		assert.Len(s.T(), data.Array(), 2)
	})

	s.Run("Should scope a passing clerk to undone passing work", func() {
		clerk := &models.User{
			Identifier:  "u-4",
			Name:        "Passing Clerk",
			Role:        types.ROLE_STAFF,
			Branch:      "all",
			Permissions: types.Permissions{types.PERM_PASSING_DETAILS},
		}
		router := ticketRouter(clerk)

		s.Mock.ExpectQuery(`SELECT (.+) FROM "tickets" WHERE status IN (.+) AND passing_date IS NULL`).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(3, "t-3", "soldButNotDelivered", "Activa", "STD", "Red", "Manpada"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/tickets", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		data := gjson.Get(string(rbytes), "data")
		assert.Len(s.T(), data.Array(), 1)
		assert.Equal(s.T(), "t-3", data.Array()[0].Get("id").String())
	})

	s.Run("Should return nothing for a user with no grants", func() {
		nobody := &models.User{Identifier: "u-5", Name: "Nobody", Role: types.ROLE_STAFF, Branch: "all"}
		router := ticketRouter(nobody)

		s.Mock.ExpectQuery(`SELECT (.+) FROM "tickets" WHERE 1 = 0`).
			WillReturnRows(sqlmock.NewRows(columns))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/tickets", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		data := gjson.Get(string(rbytes), "data")
		assert.Len(s.T(), data.Array(), 0)
	})

	s.Run("Should refuse a contradictory permission set", func() {
		clerk := &models.User{
			Identifier: "u-6",
			Name:       "Misconfigured Clerk",
			Role:       types.ROLE_STAFF,
			Branch:     "all",
			Permissions: types.Permissions{
				types.PERM_PASSING_DETAILS,
				types.PERM_REGISTRATION_DETAILS,
			},
		}
		router := ticketRouter(clerk)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/tickets", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 422, w.Code)
	})
}

func (s *TestSuite) TestRegistrationStageGuard() {
	clerk := &models.User{
		Identifier:  "u-10",
		Name:        "Registration Clerk",
		Role:        types.ROLE_STAFF,
		Branch:      "all",
		Permissions: types.Permissions{types.PERM_REGISTRATION_DETAILS},
	}
	router := ticketRouter(clerk)

	s.Run("Should reject registration while the passing date is unset", func() {
		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "tickets" WHERE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "identifier", "status", "passing_date"}).
				AddRow(10, "t-10", "soldButNotDelivered", nil))
		s.Mock.ExpectRollback()

		body, _ := json.Marshal(types.RegistrationDetailsRequestBody{
			RegistrationDate: "2025-06-10",
			VehicleNumber:    "MH04AB1234",
		})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/tickets/t-10/registration", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 422, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.NotEmpty(s.T(), gjson.Get(string(rbytes), "error").String())
	})
}

func adminRouter(user *models.User) *gin.Engine {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuth(user))
	admin := apiv1.Group("/admin")
	admin.Use(middlewares.RoleMiddleware(types.ROLE_ADMIN, types.ROLE_OWNER))
	adminHandlers(admin)
	return router
}

func (s *TestSuite) TestDealerReassignment() {
	admin := &models.User{Identifier: "u-11", Name: "Admin", Role: types.ROLE_ADMIN, Branch: "all"}
	router := adminRouter(admin)

	s.Run("Should refuse reassigning the already assigned dealer", func() {
		s.Mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "identifier", "name", "role"}).
				AddRow(5, "d-1", "Dealer One", "dealer"))
		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "tickets" WHERE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "identifier", "status", "assigned_dealer"}).
				AddRow(11, "t-11", "open", "d-1"))
		s.Mock.ExpectRollback()

		body, _ := json.Marshal(types.AssignDealerRequestBody{DealerID: "d-1"})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/admin/tickets/t-11/dealer", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 422, w.Code)
	})
}

func (s *TestSuite) TestBookingPriceFloor() {
	admin := &models.User{Identifier: "u-12", Name: "Admin", Role: types.ROLE_ADMIN, Branch: "all"}
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuth(admin))
	masterHandlers(apiv1)

	bookingBody := func(amount float64) string {
		body, _ := json.Marshal(types.CreateBookingRequestBody{
			CusName:       "R. Sharma",
			Aadhaar:       "123412341234",
			AddCus:        "Thane",
			Model:         "Activa",
			Variant:       "STD",
			Colour:        "Red",
			Executive:     "S. Patil",
			Branch:        "Manpada",
			BookingAmount: amount,
			HP:            "cash",
			MobileNumber:  "9800000000",
		})
		return string(body)
	}
	vehicleRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "model", "variant", "colour", "price_lock"}).
			AddRow(1, "Activa", "STD", "Red", 95000.0)
	}

	s.Run("Should reject a booking below the price lock", func() {
		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "vehicles" WHERE`).WillReturnRows(vehicleRows())
		s.Mock.ExpectRollback()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(bookingBody(90000)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 422, w.Code)
	})

	s.Run("Should accept a booking exactly at the price lock", func() {
		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "vehicles" WHERE`).WillReturnRows(vehicleRows())
		s.Mock.ExpectQuery(`INSERT INTO "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		s.Mock.ExpectCommit()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(bookingBody(95000)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
	})
}

func (s *TestSuite) TestBulkStockIngest() {
	admin := &models.User{Identifier: "u-13", Name: "Admin", Role: types.ROLE_ADMIN, Branch: "all"}
	router := ticketRouter(admin)

	s.Run("Should report per-row outcomes instead of failing the batch", func() {
		vehicleRow := func() *sqlmock.Rows {
			return sqlmock.NewRows([]string{"id", "model", "variant", "colour", "price_lock"}).
				AddRow(1, "Activa", "STD", "Red", 95000.0)
		}

		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "vehicles" WHERE`).WillReturnRows(vehicleRow())
		s.Mock.ExpectQuery(`INSERT INTO "tickets"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(20))
		s.Mock.ExpectCommit()

		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "vehicles" WHERE`).WillReturnRows(vehicleRow())
		s.Mock.ExpectQuery(`INSERT INTO "tickets"`).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		s.Mock.ExpectRollback()

		body, _ := json.Marshal(types.BulkTicketsRequestBody{Rows: []types.BulkTicketRow{
			{Model: "Activa", Variant: "STD", Colour: "Red", ChassisNo: "CH-100", EngineNo: "EN-100", Location: "Manpada"},
			{Model: "Activa", Variant: "STD", Colour: "Red", ChassisNo: "CH-100", EngineNo: "EN-100", Location: "Manpada"},
		}})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/tickets/bulk", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		result := gjson.Get(string(rbytes), "data")
		assert.Equal(s.T(), int64(1), result.Get("created").Int())
		assert.Equal(s.T(), int64(1), result.Get("skipped").Int())
		assert.Equal(s.T(), int64(0), result.Get("failed").Int())
	})

	s.Run("Should create missing vehicles and every ticket", func() {
		vehicleColumns := []string{"id", "model", "variant", "colour", "price_lock"}
		noVehicle := func() *sqlmock.Rows { return sqlmock.NewRows(vehicleColumns) }

		// Row 1: unknown (model, variant, colour), vehicle gets created.
		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "vehicles" WHERE`).WillReturnRows(noVehicle())
		s.Mock.ExpectQuery(`INSERT INTO "vehicles"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
		s.Mock.ExpectQuery(`INSERT INTO "tickets"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
		s.Mock.ExpectCommit()

		// Row 2: tuple already in the catalog, no vehicle insert.
		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "vehicles" WHERE`).
			WillReturnRows(sqlmock.NewRows(vehicleColumns).AddRow(3, "Shine", "DLX", "Black", 88000.0))
		s.Mock.ExpectQuery(`INSERT INTO "tickets"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(22))
		s.Mock.ExpectCommit()

		// Row 3: another unknown tuple, second vehicle insert.
		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "vehicles" WHERE`).WillReturnRows(noVehicle())
		s.Mock.ExpectQuery(`INSERT INTO "vehicles"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
		s.Mock.ExpectQuery(`INSERT INTO "tickets"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(23))
		s.Mock.ExpectCommit()

		body, _ := json.Marshal(types.BulkTicketsRequestBody{Rows: []types.BulkTicketRow{
			{Model: "Unicorn", Variant: "STD", Colour: "Grey", ChassisNo: "CH-201", EngineNo: "EN-201", Location: "Ovala", PriceLock: 105000},
			{Model: "Shine", Variant: "DLX", Colour: "Black", ChassisNo: "CH-202", EngineNo: "EN-202", Location: "Ovala"},
			{Model: "Dio", Variant: "SMART", Colour: "Blue", ChassisNo: "CH-203", EngineNo: "EN-203", Location: "Ovala", PriceLock: 70000},
		}})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/tickets/bulk", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		result := gjson.Get(string(rbytes), "data")
		assert.Equal(s.T(), int64(3), result.Get("created").Int())
		assert.Equal(s.T(), int64(0), result.Get("skipped").Int())
		assert.Equal(s.T(), int64(0), result.Get("failed").Int())
		// Both vehicle inserts (and only those two) must have been issued.
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func (s *TestSuite) TestLoginSessionGuard() {
	router := setupRouter()
	guestAuthRoutes(router)

	hashed, err := utils.HashPassword("s3cret-pass")
	assert.Nil(s.T(), err)
	userColumns := []string{"id", "identifier", "name", "password", "role", "branch", "session_token", "session_start", "session_expiry"}
	loginBody, _ := json.Marshal(types.LoginRequestBody{Name: "Clerk", Password: "s3cret-pass"})

	s.Run("Should reject a login while a session is live", func() {
		start := time.Now().Add(-10 * time.Minute)
		expiry := time.Now().Add(50 * time.Minute)
		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE`).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "u-20", "Clerk", hashed, "staff", "all", "tok-1", start, expiry))
		s.Mock.ExpectRollback()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(string(loginBody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 409, w.Code)
		rbytes, _ := io.ReadAll(w.Body)
		assert.Contains(s.T(), gjson.Get(string(rbytes), "error").String(), "active session")
		// The rollback proves no session-column update was issued.
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("Should start a session and mark the cookie Secure outside local", func() {
		s.T().Setenv("JWT_SECRET", "test-secret")
		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE`).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "u-20", "Clerk", hashed, "staff", "all", "", nil, nil))
		s.Mock.ExpectExec(`UPDATE "users" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		s.Mock.ExpectCommit()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(string(loginBody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		cookie := w.Header().Get("Set-Cookie")
		assert.Contains(s.T(), cookie, "access_token=")
		assert.Contains(s.T(), cookie, "Secure")
		assert.Contains(s.T(), cookie, "HttpOnly")
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func (s *TestSuite) TestRoleGate() {
	staff := &models.User{Identifier: "u-7", Name: "Staff", Role: types.ROLE_STAFF, Branch: "all"}
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuth(staff))
	admin := apiv1.Group("/admin")
	admin.Use(middlewares.RoleMiddleware(types.ROLE_ADMIN, types.ROLE_OWNER))
	adminHandlers(admin)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/admin/users", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 403, w.Code)
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
