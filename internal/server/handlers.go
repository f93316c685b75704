package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/image-proxy/internal/apperrors"
	"github.com/ironsheep/image-proxy/internal/imaging"
	"github.com/ironsheep/image-proxy/internal/proxy"
)

// handleImage serves GET /image/:spec/*.
//
// The wildcard is the percent-encoded source URL. An optional ?format=
// query selects the output container.
func (s *Server) handleImage(c echo.Context) error {
	source, err := url.PathUnescape(c.Param("*"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid source url encoding")
	}
	if source == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing source url")
	}

	req := proxy.Request{Token: c.Param("spec"), URL: source}
	if name := c.QueryParam("format"); name != "" {
		format, err := imaging.ParseFormat(name)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		req.Format = format
	}

	res, err := s.svc.Generate(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, res.ContentType, res.Data)
}

// handleHealth reports liveness and cache counters.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"cache":  s.svc.CacheStats(),
	})
}

// StatusCode maps a request failure to an HTTP status.
func StatusCode(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}

	switch apperrors.CategoryOf(err) {
	case apperrors.CategorySpecDecode, apperrors.CategoryTransform:
		return http.StatusBadRequest
	case apperrors.CategoryFetch:
		return http.StatusBadGateway
	case apperrors.CategoryImageDecode:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// httpErrorHandler writes failures as {"error": category, "message": text}.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := StatusCode(err)
	body := map[string]string{"message": http.StatusText(code)}

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			body["message"] = msg
		}
	case apperrors.CategoryOf(err) != "":
		body["error"] = string(apperrors.CategoryOf(err))
		body["message"] = err.Error()
	}

	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to write error response")
	}
}
