package user_controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/models/user_models"
	"github.com/joy095/travelmint/utils"
	"github.com/stretchr/testify/assert"
)

func routerAs(uc *UserController, as *user_models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(utils.ContextUserIDKey, as.ID)
		c.Set(utils.ContextUserKey, as)
	})
	r.GET("/user-auth", uc.AuthCheck)
	r.POST("/update/:id", uc.UpdateUser)
	r.POST("/update-profile-photo/:id", uc.UpdateProfilePhoto)
	r.POST("/update-password/:id", uc.UpdatePassword)
	r.DELETE("/delete/:id", uc.DeleteAccount)
	return r
}

func call(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAuthCheck(t *testing.T) {
	r := routerAs(NewUserController(nil, nil, false), &user_models.User{ID: uuid.New()})
	w := call(r, http.MethodGet, "/user-auth", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"check":true}`, w.Body.String())
}

func TestUsersCannotTouchOtherAccounts(t *testing.T) {
	me := &user_models.User{ID: uuid.New(), IsVerified: true}
	other := uuid.NewString()
	r := routerAs(NewUserController(nil, nil, false), me)

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/update/"+other, `{"username":"x"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/update-password/"+other, `{}`).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodDelete, "/delete/"+other, "").Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/update/not-a-uuid", `{}`).Code)
}

func TestUpdatePasswordRequiresBothFields(t *testing.T) {
	me := &user_models.User{ID: uuid.New(), IsVerified: true}
	r := routerAs(NewUserController(nil, nil, false), me)

	w := call(r, http.MethodPost, "/update-password/"+me.ID.String(), `{"oldpassword":"a"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfilePhotoWithoutStorage(t *testing.T) {
	me := &user_models.User{ID: uuid.New(), IsVerified: true}
	r := routerAs(NewUserController(nil, nil, false), me)

	w := call(r, http.MethodPost, "/update-profile-photo/"+me.ID.String(), "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
