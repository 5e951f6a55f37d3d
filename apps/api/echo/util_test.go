package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/schedule"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	inmemdb "github.com/trezcool/mahudhurio/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func setupServer(t *testing.T) (*Server, *inmemdb.DB) {
	t.Helper()

	conf := &core.Config{AppName: "Mahudhurio", TestMode: true}

	db := inmemdb.NewDB()
	scheduleRepo := inmemdb.NewScheduleRepository(db)
	attendanceRepo := inmemdb.NewAttendanceRepository(db)
	rosterRepo := inmemdb.NewRosterRepository(db)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        nopLogger{},
		ScheduleSvc:   schedule.NewService(scheduleRepo, nopLogger{}),
		AttendanceSvc: attendance.NewService(attendanceRepo, scheduleRepo, rosterRepo),
		RosterRepo:    rosterRepo,
		SettingsStore: inmemdb.NewSettingsStore(db),
		MailSvc:       emailsvc.NewConsoleServiceMock(conf),
		Validate:      validate,
		Translator:    translator,
	})
	return server, db
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) bool {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false
	}
	ab, _ := json.Marshal(j1)
	bb, _ := json.Marshal(j2)
	return bytes.Equal(ab, bb)
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData != nil && !jsonBytesEqual(rec.Body.Bytes(), tt.wantData) {
		t.Errorf("failed! data = %s; wantData %s", rec.Body.String(), tt.wantData)
	}
}
