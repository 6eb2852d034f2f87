package echomw_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/dsl"
	echomw "github.com/reoring/skemabind/middleware/echo"
)

type note struct {
	skemabind.Base
	Text string `json:"text"`
}

func TestValidateJSON(t *testing.T) {
	s := dsl.Object().Field("text", dsl.String().MinLen(1)).Required().MustBuild("note")
	b := skemabind.MustBind[note](s, skemabind.WithRegistry(nil))

	e := echo.New()
	e.POST("/notes", func(c echo.Context) error {
		n, ok := echomw.GetModel[note](c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, n.Text)
	}, echomw.ValidateJSON(b))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(`{"text":"hi"}`)))
	if rec.Code != http.StatusOK || rec.Body.String() != "hi" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(`{"text":"hi","text":"x"}`)))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"duplicate_key"`) {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}
