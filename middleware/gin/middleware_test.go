package ginmw_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/dsl"
	ginmw "github.com/reoring/skemabind/middleware/gin"
)

type note struct {
	skemabind.Base
	Text string `json:"text"`
}

func TestValidateJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := dsl.Object().Field("text", dsl.String().MinLen(1)).Required().MustBuild("note")
	b := skemabind.MustBind[note](s, skemabind.WithRegistry(nil))

	r := gin.New()
	r.POST("/notes", ginmw.ValidateJSON(b), func(c *gin.Context) {
		n, ok := ginmw.GetModel[note](c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, n.Text)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(`{"text":"hi"}`)))
	if rec.Code != http.StatusOK || rec.Body.String() != "hi" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(`{"text":""}`)))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"too_short"`) {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}
