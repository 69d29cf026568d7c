package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/config"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/grist"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/models"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/service"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/session"
)

type MockShortenerService struct {
	mock.Mock
}

func (s *MockShortenerService) Shorten(ctx context.Context, rawURL string, createdBy int64) (*models.ShortLink, error) {
	args := s.Called(ctx, rawURL, createdBy)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Error(1)
}

func (s *MockShortenerService) Resolve(ctx context.Context, shortID string) (*models.ShortLink, error) {
	args := s.Called(ctx, shortID)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (s *MockAuthService) Login(ctx context.Context, in service.LoginInput) (*models.User, error) {
	args := s.Called(ctx, in)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type HandlersTestSuite struct {
	suite.Suite
	logger        *httplog.Logger
	cfg           *config.Config
	shortenerMock *MockShortenerService
	authMock      *MockAuthService
	sessions      *session.Store
	server        *httptest.Server
	e             *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	suite.cfg = &config.Config{
		Env:     config.EnvDev,
		BaseURL: "https://sho.rt",
		Session: config.Session{
			CookieName: "sid",
			TTL:        config.Duration(time.Hour),
		},
	}
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.shortenerMock = new(MockShortenerService)
	suite.authMock = new(MockAuthService)
	suite.sessions = session.NewStore(suite.cfg.Session.TTL.Std())

	router := NewRouter(suite.logger, suite.cfg, suite.shortenerMock, suite.authMock, suite.sessions)
	suite.server = httptest.NewServer(router)

	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  suite.server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	})
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.shortenerMock.AssertExpectations(suite.T())
	suite.authMock.AssertExpectations(suite.T())
	suite.server.Close()
}

func (suite *HandlersTestSuite) authedUser() *models.User {
	return &models.User{
		RowID:    5,
		UserID:   42,
		Email:    "teerapat@example.com",
		UserName: "teerapat",
	}
}

func (suite *HandlersTestSuite) TestRoot() {
	suite.Run("redirects to login page", func() {
		suite.e.GET("/").
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual(loginPagePath)
	})
}

func (suite *HandlersTestSuite) TestLogin() {
	const path = "/login"

	suite.Run("missing credentials", func() {
		suite.authMock.
			On("Login", mock.Anything, mock.Anything).
			Times(1).
			Return(nil, service.ErrMissingCredentials)

		suite.e.POST(path).
			WithJSON(map[string]string{}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("ok", false).
			HasValue("message", msgMissingCredentials)
	})

	suite.Run("bad credentials", func() {
		suite.authMock.
			On("Login", mock.Anything, mock.Anything).
			Times(1).
			Return(nil, service.ErrInvalidCredentials)

		suite.e.POST(path).
			WithJSON(map[string]string{
				"username": "teerapat",
				"password": "wrong",
			}).
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object().
			HasValue("ok", false).
			HasValue("message", msgBadCredentials)
	})

	suite.Run("store failure stays generic", func() {
		suite.authMock.
			On("Login", mock.Anything, mock.Anything).
			Times(1).
			Return(nil, &grist.APIError{StatusCode: 502, Body: "secret upstream detail"})

		suite.e.POST(path).
			WithJSON(map[string]string{
				"username": "teerapat",
				"password": "secret",
			}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("error", "Internal Server Error").
			NotContainsValue("secret upstream detail")
	})

	suite.Run("json success sets cookie and redirect target", func() {
		suite.authMock.
			On("Login", mock.Anything, mock.MatchedBy(func(in service.LoginInput) bool {
				return in.Identifier == "teerapat" && in.Password == "secret" && in.UserAgent != ""
			})).
			Times(1).
			Return(suite.authedUser(), nil)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{
				"username": "teerapat",
				"password": "secret",
			}).
			Expect().
			Status(http.StatusOK)

		resp.JSON().Object().
			HasValue("ok", true).
			HasValue("redirect", postLoginPath)

		token := resp.Cookie("sid").Value().NotEmpty().Raw()

		_, ok := suite.sessions.Get(token)
		suite.True(ok, "cookie token must map to a live session")
	})

	suite.Run("form success redirects", func() {
		suite.authMock.
			On("Login", mock.Anything, mock.Anything).
			Times(1).
			Return(suite.authedUser(), nil)

		suite.e.POST(path).
			WithFormField("username", "teerapat").
			WithFormField("password", "secret").
			Expect().
			Status(http.StatusSeeOther).
			Header("Location").IsEqual(postLoginPath)
	})
}

func (suite *HandlersTestSuite) TestLogout() {
	const path = "/logout"

	suite.Run("destroys the session", func() {
		sess := suite.sessions.New(suite.authedUser())

		suite.e.POST(path).
			WithCookie("sid", sess.Token).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("ok", true)

		_, ok := suite.sessions.Get(sess.Token)
		suite.False(ok, "session must be gone after logout")
	})

	suite.Run("without a session still succeeds", func() {
		suite.e.POST(path).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("ok", true)
	})
}

func (suite *HandlersTestSuite) TestShorten() {
	const path = "/api/shorten"

	suite.Run("unauthenticated", func() {
		suite.e.POST(path).
			WithJSON(map[string]string{"url": "https://example.com/x"}).
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object().
			HasValue("error", "Unauthorized")

		suite.shortenerMock.AssertNotCalled(suite.T(), "Shorten")
	})

	suite.Run("expired session", func() {
		suite.e.POST(path).
			WithCookie("sid", "stale-token").
			WithJSON(map[string]string{"url": "https://example.com/x"}).
			Expect().
			Status(http.StatusUnauthorized)

		suite.shortenerMock.AssertNotCalled(suite.T(), "Shorten")
	})

	suite.Run("unauthenticated browser is redirected", func() {
		suite.e.POST(path).
			WithHeader("Accept", "text/html").
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual(loginPagePath)
	})

	suite.Run("empty body", func() {
		sess := suite.sessions.New(suite.authedUser())

		suite.e.POST(path).
			WithCookie("sid", sess.Token).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("error", "Invalid URL")

		suite.shortenerMock.AssertNotCalled(suite.T(), "Shorten")
	})

	suite.Run("invalid url", func() {
		sess := suite.sessions.New(suite.authedUser())

		suite.shortenerMock.
			On("Shorten", mock.Anything, "not a url", int64(42)).
			Times(1).
			Return(nil, service.ErrInvalidURL)

		suite.e.POST(path).
			WithCookie("sid", sess.Token).
			WithJSON(map[string]string{"url": "not a url"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("error", "Invalid URL")
	})

	suite.Run("server error", func() {
		sess := suite.sessions.New(suite.authedUser())

		suite.shortenerMock.
			On("Shorten", mock.Anything, "https://example.com/x", int64(42)).
			Times(1).
			Return(nil, service.ErrShortIDExhausted)

		suite.e.POST(path).
			WithCookie("sid", sess.Token).
			WithJSON(map[string]string{"url": "https://example.com/x"}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("error", "Internal Server Error")
	})

	suite.Run("success", func() {
		sess := suite.sessions.New(suite.authedUser())

		suite.shortenerMock.
			On("Shorten", mock.Anything, "https://example.com/x", int64(42)).
			Times(1).
			Return(&models.ShortLink{ShortID: "abc123", LongURL: "https://example.com/x"}, nil)

		suite.e.POST(path).
			WithCookie("sid", sess.Token).
			WithJSON(map[string]string{"url": "https://example.com/x"}).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("shortUrl", "https://sho.rt/abc123")
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	suite.Run("known short id", func() {
		suite.shortenerMock.
			On("Resolve", mock.Anything, "abc123").
			Times(1).
			Return(&models.ShortLink{ShortID: "abc123", LongURL: "https://example.com/x"}, nil)

		suite.e.GET("/abc123").
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com/x")
	})

	suite.Run("unknown short id", func() {
		suite.shortenerMock.
			On("Resolve", mock.Anything, "nope").
			Times(1).
			Return(nil, grist.ErrNotFound)

		suite.e.GET("/nope").
			Expect().
			Status(http.StatusNotFound)
	})

	suite.Run("reserved segment is never resolved", func() {
		suite.e.GET("/shortener").
			Expect().
			Status(http.StatusNotFound)

		suite.shortenerMock.AssertNotCalled(suite.T(), "Resolve")
	})

	suite.Run("store failure stays generic", func() {
		suite.shortenerMock.
			On("Resolve", mock.Anything, "abc123").
			Times(1).
			Return(nil, &grist.APIError{StatusCode: 500, Body: "secret upstream detail"})

		suite.e.GET("/abc123").
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("error", "Internal Server Error")
	})
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestBaseURL(t *testing.T) {
	cfg := &config.Config{}

	r := httptest.NewRequest(http.MethodPost, "/api/shorten", nil)
	r.Host = "short.example.com"

	if got := baseURL(cfg, r); got != "http://short.example.com" {
		t.Errorf("baseURL() = %q, want host-derived base", got)
	}

	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "sho.rt")

	if got := baseURL(cfg, r); got != "https://sho.rt" {
		t.Errorf("baseURL() = %q, want forwarded base", got)
	}

	cfg.BaseURL = "https://configured.example"

	if got := baseURL(cfg, r); got != "https://configured.example" {
		t.Errorf("baseURL() = %q, want configured base", got)
	}
}
