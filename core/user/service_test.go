package user_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/user"
	"github.com/sksmith/room-reservation/db/usrrepo"
	"golang.org/x/crypto/bcrypt"
)

func TestGet(t *testing.T) {
	usr := user.User{ID: 7, Username: "someuser", HashedPassword: "somehashedpassword", Email: "someuser@example.com", Created: time.Now()}
	tests := []struct {
		name     string
		username string

		getFunc func(ctx context.Context, username string, options ...core.QueryOptions) (user.User, error)

		wantUser user.User
		wantErr  bool
	}{
		{
			name:     "user is returned",
			username: "someuser",

			getFunc: func(ctx context.Context, username string, options ...core.QueryOptions) (user.User, error) {
				return usr, nil
			},

			wantUser: usr,
		},
		{
			name:     "error is returned",
			username: "someuser",

			getFunc: func(ctx context.Context, username string, options ...core.QueryOptions) (user.User, error) {
				return user.User{}, errors.New("some unexpected error")
			},

			wantErr:  true,
			wantUser: user.User{},
		},
	}

	for _, test := range tests {
		mockRepo := usrrepo.NewMockRepo()
		if test.getFunc != nil {
			mockRepo.GetFunc = test.getFunc
		}

		service := user.NewService(mockRepo)

		t.Run(test.name, func(t *testing.T) {
			got, err := service.Get(context.Background(), test.username)
			if test.wantErr && err == nil {
				t.Errorf("expected error, got none")
			} else if !test.wantErr && err != nil {
				t.Errorf("did not want error, got=%v", err)
			}

			if !reflect.DeepEqual(got, test.wantUser) {
				t.Errorf("unexpected user\n got=%+v\nwant=%+v", got, test.wantUser)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name    string
		request user.CreateUserRequest

		createFunc func(ctx context.Context, user *user.User, tx ...core.UpdateOptions) error

		wantUsername    string
		wantRepoCallCnt map[string]int
		wantErr         bool
		wantInvalid     bool
	}{
		{
			name:    "user is returned",
			request: user.CreateUserRequest{Username: "someuser", IsAdmin: false, Email: "someuser@example.com", PlainTextPassword: "plaintextpw"},

			wantRepoCallCnt: map[string]int{"Create": 1},
			wantUsername:    "someuser",
		},
		{
			name:    "username too short",
			request: user.CreateUserRequest{Username: "ab", PlainTextPassword: "plaintextpw"},

			wantRepoCallCnt: map[string]int{"Create": 0},
			wantErr:         true,
			wantInvalid:     true,
		},
		{
			name:    "password too short",
			request: user.CreateUserRequest{Username: "someuser", PlainTextPassword: "short"},

			wantRepoCallCnt: map[string]int{"Create": 0},
			wantErr:         true,
			wantInvalid:     true,
		},
		{
			name:    "repository error",
			request: user.CreateUserRequest{Username: "someuser", PlainTextPassword: "plaintextpw"},

			createFunc: func(ctx context.Context, user *user.User, tx ...core.UpdateOptions) error {
				return errors.New("some unexpected error")
			},

			wantRepoCallCnt: map[string]int{"Create": 1},
			wantErr:         true,
		},
	}

	for _, test := range tests {
		mockRepo := usrrepo.NewMockRepo()
		if test.createFunc != nil {
			mockRepo.CreateFunc = test.createFunc
		}

		service := user.NewService(mockRepo)

		t.Run(test.name, func(t *testing.T) {
			got, err := service.Create(context.Background(), test.request)
			if test.wantErr && err == nil {
				t.Errorf("expected error, got none")
			} else if !test.wantErr && err != nil {
				t.Errorf("did not want error, got=%v", err)
			}

			if got.Username != test.wantUsername {
				t.Errorf("unexpected username got=%+v want=%+v", got.Username, test.wantUsername)
			}
			if invalid := errors.Is(err, user.ErrInvalidUser); invalid != test.wantInvalid {
				t.Errorf("unexpected invalid user error got=%v want=%v", err, test.wantInvalid)
			}

			for f, c := range test.wantRepoCallCnt {
				mockRepo.VerifyCount(f, c, t)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		username string

		deleteFunc func(ctx context.Context, username string, tx ...core.UpdateOptions) error

		wantRepoCallCnt map[string]int
		wantErr         bool
	}{
		{
			name:            "user is deleted",
			username:        "someuser",
			wantRepoCallCnt: map[string]int{"Delete": 1},
		},
		{
			name:     "error is returned",
			username: "someuser",

			deleteFunc: func(ctx context.Context, username string, tx ...core.UpdateOptions) error {
				return errors.New("some unexpected error")
			},

			wantRepoCallCnt: map[string]int{"Delete": 1},
			wantErr:         true,
		},
	}

	for _, test := range tests {
		mockRepo := usrrepo.NewMockRepo()
		if test.deleteFunc != nil {
			mockRepo.DeleteFunc = test.deleteFunc
		}

		service := user.NewService(mockRepo)

		t.Run(test.name, func(t *testing.T) {
			err := service.Delete(context.Background(), test.username)
			if test.wantErr && err == nil {
				t.Errorf("expected error, got none")
			} else if !test.wantErr && err != nil {
				t.Errorf("did not want error, got=%v", err)
			}

			for f, c := range test.wantRepoCallCnt {
				mockRepo.VerifyCount(f, c, t)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("plaintextpw"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	usr := user.User{ID: 7, Username: "someuser", HashedPassword: string(hash), IsAdmin: false, Created: time.Now()}
	tests := []struct {
		name     string
		username string
		password string

		getFunc func(ctx context.Context, username string, options ...core.QueryOptions) (user.User, error)

		wantUsername string
		wantErr      bool
	}{
		{
			name:     "correct password",
			username: "someuser",
			password: "plaintextpw",

			getFunc: func(ctx context.Context, username string, options ...core.QueryOptions) (user.User, error) {
				return usr, nil
			},

			wantUsername: "someuser",
		},
		{
			name:     "wrong password",
			username: "someuser",
			password: "wrongpw",

			getFunc: func(ctx context.Context, username string, options ...core.QueryOptions) (user.User, error) {
				return usr, nil
			},

			wantErr:      true,
			wantUsername: "",
		},
		{
			name:     "unexpected error getting user",
			username: "someuser",
			password: "wrongpw",

			getFunc: func(ctx context.Context, username string, options ...core.QueryOptions) (user.User, error) {
				return user.User{}, errors.New("some unexpected error")
			},

			wantErr:      true,
			wantUsername: "",
		},
	}

	for _, test := range tests {
		mockRepo := usrrepo.NewMockRepo()
		if test.getFunc != nil {
			mockRepo.GetFunc = test.getFunc
		}

		service := user.NewService(mockRepo)

		t.Run(test.name, func(t *testing.T) {
			got, err := service.Login(context.Background(), test.username, test.password)
			if test.wantErr && err == nil {
				t.Errorf("expected error, got none")
			} else if !test.wantErr && err != nil {
				t.Errorf("did not want error, got=%v", err)
			}

			if got.Username != test.wantUsername {
				t.Errorf("unexpected username got=%v want=%v", got.Username, test.wantUsername)
			}
		})
	}
}

func TestGetByID(t *testing.T) {
	usr := user.User{ID: 7, Username: "someuser", Phone: "+84 912 345 678"}

	mockRepo := usrrepo.NewMockRepo()
	mockRepo.GetByIDFunc = func(ctx context.Context, id uint64, tx ...core.QueryOptions) (user.User, error) {
		if id != usr.ID {
			return user.User{}, core.ErrNotFound
		}
		return usr, nil
	}
	service := user.NewService(mockRepo)

	got, err := service.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}
	if !reflect.DeepEqual(got, usr) {
		t.Errorf("unexpected user\n got=%+v\nwant=%+v", got, usr)
	}

	_, err = service.GetByID(context.Background(), 8)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unexpected error got=%v want=%v", err, core.ErrNotFound)
	}
	mockRepo.VerifyCount("GetByID", 2, t)
}

func TestHasContact(t *testing.T) {
	tests := []struct {
		name      string
		usr       user.User
		wantEmail bool
		wantPhone bool
	}{
		{name: "nothing", usr: user.User{}},
		{name: "email", usr: user.User{Email: "guest@example.com"}, wantEmail: true},
		{name: "malformed email", usr: user.User{Email: "not-an-email"}},
		{name: "phone", usr: user.User{Phone: "(028) 3822-1234"}, wantPhone: true},
		{name: "short phone", usr: user.User{Phone: "12-34"}},
		{name: "both", usr: user.User{Email: "guest@example.com", Phone: "0912345678"}, wantEmail: true, wantPhone: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.usr.HasEmail(); got != test.wantEmail {
				t.Errorf("unexpected HasEmail got=%v want=%v", got, test.wantEmail)
			}
			if got := test.usr.HasPhone(); got != test.wantPhone {
				t.Errorf("unexpected HasPhone got=%v want=%v", got, test.wantPhone)
			}
			if got := test.usr.HasContact(); got != (test.wantEmail || test.wantPhone) {
				t.Errorf("unexpected HasContact got=%v", got)
			}
		})
	}
}
