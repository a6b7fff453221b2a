package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core/user"
)

type UserService interface {
	Create(ctx context.Context, user user.CreateUserRequest) (user.User, error)
	Get(ctx context.Context, username string) (user.User, error)
	Delete(ctx context.Context, username string) error
	Login(ctx context.Context, username, password string) (user.User, error)
}

type UserApi struct {
	service UserService
}

func NewUserApi(service UserService) *UserApi {
	return &UserApi{service: service}
}

func (a *UserApi) ConfigureRouter(r chi.Router) {
	r.Use(Authenticate(a.service))

	r.Get("/me", a.Me)
	r.With(AdminOnly).Post("/", a.Create)
	r.With(AdminOnly).Delete("/{username}", a.Delete)
}

func (a *UserApi) Create(w http.ResponseWriter, r *http.Request) {
	data := &CreateUserRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	usr, err := a.service.Create(r.Context(), *data.CreateUserRequest)
	if err != nil {
		log.Err(err).Str("username", data.Username).Msg("failed to create user")
		RenderErr(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, &UserResponse{User: usr})
}

func (a *UserApi) Me(w http.ResponseWriter, r *http.Request) {
	usr, _ := CurrentUser(r)
	Render(w, r, &UserResponse{User: usr})
}

func (a *UserApi) Delete(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Delete(r.Context(), chi.URLParam(r, "username")); err != nil {
		RenderErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
