package server

import (
	"html/template"
	"io"
	"net/http"
	"strconv"

	"DietPlanner/internal/utility"
	"DietPlanner/web"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TemplateRenderer is a custom html/template renderer for Echo framework
type TemplateRenderer struct {
	templates *template.Template
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// NewTemplateRenderer parses every embedded page.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{
		templates: template.Must(template.ParseFS(web.Templates, "templates/*.html")),
	}
}

// CustomValidator plugs go-playground/validator into echo's c.Validate.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(LoggerMiddleware)
	e.Use(s.requestLogger())

	// Without configured origins no CORS headers are sent and browsers keep
	// cross-origin callers out of the cookie-keyed chat.
	if len(s.opts.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     s.opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	e.StaticFS("/static", echo.MustSubFS(web.Public, "public"))
	e.Renderer = NewTemplateRenderer()
	e.Validator = &CustomValidator{validator: s.validate}

	// Pages
	e.GET("/", s.renderPage("index.html", "Home"))
	e.GET("/about", s.renderPage("about.html", "About"))
	e.GET("/contact", s.renderPage("contact.html", "Contact"))

	// Plans
	e.GET("/plan/1day", s.renderPlanForm("1day.html", "1-Day Plan", "/plan/1day"))
	e.POST("/plan/1day", s.PlanDayHandler)
	e.GET("/plan/1day/history", s.historyHandler(s.DailyHistory))
	e.GET("/plan/7day", s.renderPlanForm("7day.html", "7-Day Plan", "/plan/7day"))
	e.POST("/plan/7day", s.PlanWeekHandler)
	e.GET("/plan/7day/history", s.historyHandler(s.WeeklyHistory))

	// Chat
	e.GET("/chatbot", s.renderPage("chatbot.html", "Chatbot"))
	e.POST("/chatbot", s.ChatHandler)
	e.GET("/chatbot/ws", s.ChatSocketHandler)

	// Operations
	e.GET("/health", s.healthHandler)
	if s.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	return e
}

// LoggerMiddleware tags every request with an id and attaches a child logger
// to the request context, so zerolog.Ctx works in every layer below.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)
		c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context())))

		return next(c)
	}
}

// requestLogger writes one access log line per request and feeds the HTTP
// metrics.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			s.Metrics.ObserveHTTP(v.Method, route, strconv.Itoa(v.Status), v.Latency)

			logger := zerolog.Ctx(c.Request().Context())
			event := logger.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", utility.GetRealIP(c)).
				Msg("request")
			return nil
		},
	})
}

func (s *Server) renderPage(name, title string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Render(http.StatusOK, name, map[string]interface{}{
			"Title": title,
		})
	}
}

func (s *Server) renderPlanForm(name, title, action string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Render(http.StatusOK, name, map[string]interface{}{
			"Title":  title,
			"Action": action,
		})
	}
}
