package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"coalesce/internal/identity/handler"
	"coalesce/internal/identity/lock"
	"coalesce/internal/identity/service"
	"coalesce/internal/identity/store"
	"coalesce/pkg/testutil"
)

type IdentifyHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestIdentifyHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdentifyHandlerSuite))
}

func (s *IdentifyHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := service.New(store.NewInMemoryStore(), lock.NewKeyedMutex(), nil, nil, logger)
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	handler.New(svc, logger).Register(s.router)
}

func (s *IdentifyHandlerSuite) identify(body string) (int, http.Header, string) {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/identify", body)
	rr := testutil.DoRequest(s.router, req)
	return rr.Code, rr.Header(), rr.Body.String()
}

func (s *IdentifyHandlerSuite) TestIdentifySuccess() {
	s.Run("fresh contact returns the full envelope", func() {
		status, headers, body := s.identify(`{"email":"a@x.com","phoneNumber":"111"}`)

		s.Equal(http.StatusOK, status)
		s.Equal("application/json", headers.Get("Content-Type"))
		s.JSONEq(`{
			"contact": {
				"primaryContactId": 1,
				"emails": ["a@x.com"],
				"phoneNumbers": ["111"],
				"secondaryContactIds": []
			}
		}`, body)
	})

	s.Run("linking submission lists the secondary", func() {
		status, _, body := s.identify(`{"email":"a@x.com","phoneNumber":"222"}`)

		s.Equal(http.StatusOK, status)
		s.JSONEq(`{
			"contact": {
				"primaryContactId": 1,
				"emails": ["a@x.com"],
				"phoneNumbers": ["111", "222"],
				"secondaryContactIds": [2]
			}
		}`, body)
	})
}

func (s *IdentifyHandlerSuite) TestIdentifyEmailOnly() {
	status, _, body := s.identify(`{"email":"solo@x.com","phoneNumber":null}`)

	s.Equal(http.StatusOK, status)
	s.JSONEq(`{
		"contact": {
			"primaryContactId": 1,
			"emails": ["solo@x.com"],
			"phoneNumbers": [],
			"secondaryContactIds": []
		}
	}`, body)
}

func (s *IdentifyHandlerSuite) TestIdentifyEmptySubmission() {
	for name, payload := range map[string]string{
		"both null":       `{"email":null,"phoneNumber":null}`,
		"both absent":     `{}`,
		"whitespace only": `{"email":"   ","phoneNumber":" "}`,
	} {
		s.Run(name, func() {
			status, _, body := s.identify(payload)

			s.Equal(http.StatusUnprocessableEntity, status)
			s.Contains(body, `"error":"validation_failed"`)
			s.Contains(body, "error_description")
		})
	}
}

func (s *IdentifyHandlerSuite) TestIdentifyMalformedBody() {
	status, _, body := s.identify(`{"email":`)

	s.Equal(http.StatusBadRequest, status)
	s.Contains(body, `"error":"bad_request"`)
}

func (s *IdentifyHandlerSuite) TestIdentifyRejectsNonJSONContentType() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/identify", `email=a@x.com`)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := testutil.DoRequest(s.router, req)

	s.Equal(http.StatusUnsupportedMediaType, rr.Code)
}

func (s *IdentifyHandlerSuite) TestRequestIDEchoed() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/identify", map[string]string{"email": "a@x.com"})
	req.Header.Set("X-Request-ID", "test-request-123")

	rr := testutil.DoRequest(s.router, req)

	s.Equal("test-request-123", rr.Header().Get("X-Request-ID"))
}
