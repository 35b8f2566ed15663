package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/studytrack/apps/api/echo"
	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/lab"
	"github.com/trezcool/studytrack/core/semester"
	"github.com/trezcool/studytrack/core/session"
	"github.com/trezcool/studytrack/core/subject"
	"github.com/trezcool/studytrack/services/logger"
	"github.com/trezcool/studytrack/storage/docstore/memstore"
	"github.com/trezcool/studytrack/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type env struct {
	app   *Server
	store *memstore.Store
	conf  *core.Config
}

func setup(t *testing.T) *env {
	conf := testutil.NewConfig()
	store := memstore.New()
	logger := logsvc.NewNopLogger()
	sessions := session.NewRegistry(store, logger, conf.Session)
	t.Cleanup(sessions.Close)

	app := NewServer(&Deps{
		Conf:        conf,
		Logger:      logger,
		Sessions:    sessions,
		SemesterSvc: semester.NewService(store),
		SubjectSvc:  subject.NewService(store),
		LabSvc:      lab.NewService(store),
	})
	return &env{app: app, store: store, conf: conf}
}

func (e *env) token(t *testing.T, uid string) string {
	token, err := GenerateToken(NewClaims(uid, e.conf), e.conf)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	return token
}

func (e *env) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	e.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
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

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func runTests(t *testing.T, e *env, tests []httpTest) {
	for _, tt := range tests {
		tt := tt
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.do(tt))
		})
	}
}
