package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tailorworks/tailorshop-api/models"
	"github.com/tailorworks/tailorshop-api/tests/testutil"
	"github.com/tailorworks/tailorshop-api/utils"
)

// staff is the set of employees every workflow suite starts with
type staff struct {
	admin   *models.User
	manager *models.User
	tailor  *models.User
	cashier *models.User
}

func seedStaff(t *testing.T) staff {
	db := testutil.NewTestDB(t)
	return staff{
		admin:   testutil.CreateEmployee(t, db, "admin", "Ama Admin", models.RoleAdmin),
		manager: testutil.CreateEmployee(t, db, "manager", "Kwame Manager", models.RoleManager),
		tailor:  testutil.CreateEmployee(t, db, "tailor", "Yaw Tailor", models.RoleTailor),
		cashier: testutil.CreateEmployee(t, db, "cashier", "Efua Cashier", models.RoleCashier),
	}
}

// call sends a JSON request as the employee with the given Auth0 subject.
// An empty subject sends no credentials.
func call(t *testing.T, router *gin.Engine, method, path, subject string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set(testutil.HeaderSubject, subject)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response body: %s", w.Body.String())
	return w, response
}

func subject(user *models.User) string {
	return *user.Auth0ID
}

func dataOf(response map[string]interface{}) map[string]interface{} {
	data, _ := response["data"].(map[string]interface{})
	return data
}

func codeOf(response map[string]interface{}) string {
	errObj, _ := response["error"].(map[string]interface{})
	code, _ := errObj["code"].(string)
	return code
}

func idOf(data map[string]interface{}) uint {
	return uint(data["id"].(float64))
}

func daysFromNow(days int) string {
	return time.Now().AddDate(0, 0, days).Format(utils.DateLayout)
}
