package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/dataroom-api/internal/service"
)

func newImportHandlerForTest() *ImportHandler {
	imports := service.NewImportService(nil, nil, nil, nil, nil, nil, nil, nil, 0)
	return NewImportHandler(imports)
}

func postJSON(path, body string) (*httptest.ResponseRecorder, *gin.Context) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return rec, c
}

func TestImportHandlerRejectsMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newImportHandlerForTest()

	rec, c := postJSON("/import", `{"drive_file_ids": "not-a-list"}`)
	handler.Import(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error["code"])
}

func TestImportHandlerRequiresFileIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newImportHandlerForTest()

	rec, c := postJSON("/import", `{}`)
	handler.Import(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportHandlerRequiresAuthentication(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newImportHandlerForTest()

	rec, c := postJSON("/import", `{"drive_file_ids": ["d1"]}`)
	handler.Import(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "UNAUTHORIZED", envelope.Error["code"])
}
