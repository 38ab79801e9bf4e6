package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Deps collects everything the router mounts.
type Deps struct {
	Customers   *CustomerHandler
	Segments    *SegmentHandler
	Templates   *TemplateHandler
	Automations *AutomationHandler
	Logs        *LogHandler
	Leads       *LeadHandler
	Events      *EventHandler
	External    *ExternalHandler

	ExternalAPIKey string
	Logger         logrus.FieldLogger
}

// NewRouter builds the full /api route tree.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	if d.Logger != nil {
		r.Use(RequestLogger(d.Logger))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", d.Customers.List)
			r.Post("/", d.Customers.Upsert)
			r.Post("/upload", d.Customers.Upload)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Customers.Get)
				r.Put("/", d.Customers.Update)
				r.Delete("/", d.Customers.Delete)
				r.Delete("/attributes/{field}", d.Customers.DeleteAttribute)
			})
		})

		r.Route("/segments", func(r chi.Router) {
			r.Get("/", d.Segments.List)
			r.Post("/", d.Segments.Create)
			r.Get("/handlers", d.Segments.Handlers)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Segments.Get)
				r.Put("/", d.Segments.Update)
				r.Delete("/", d.Segments.Delete)
				r.Get("/customers", d.Segments.Members)
				r.Post("/customers", d.Segments.AddMembers)
				r.Delete("/customers", d.Segments.ClearMembers)
				r.Delete("/customers/{customerID}", d.Segments.RemoveMember)
			})
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", d.Templates.List)
			r.Post("/", d.Templates.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Templates.Get)
				r.Put("/", d.Templates.Update)
				r.Delete("/", d.Templates.Delete)
				r.Post("/preview", d.Templates.Preview)
			})
		})

		r.Route("/automations", func(r chi.Router) {
			r.Get("/", d.Automations.List)
			r.Post("/", d.Automations.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Automations.Get)
				r.Put("/", d.Automations.Update)
				r.Delete("/", d.Automations.Delete)
				r.Post("/run", d.Automations.Run)
				r.Get("/tracker", d.Automations.TrackerEntries)
				r.Delete("/tracker", d.Automations.ClearTracker)
				r.Get("/logs", d.Automations.Logs)
			})
		})

		r.Route("/automation-logs", func(r chi.Router) {
			r.Get("/", d.Logs.Recent)
			r.Get("/{id}", d.Logs.Get)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", d.Leads.List)
			r.Post("/", d.Leads.Create)
			r.Post("/bulk-status", d.Leads.BulkStatus)
			r.Post("/bulk-assign", d.Leads.BulkAssign)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Leads.Get)
				r.Put("/", d.Leads.Update)
				r.Delete("/", d.Leads.Delete)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", d.Events.List)
			r.Post("/", d.Events.Create)
			r.Get("/{id}", d.Events.Get)
		})

		r.Route("/external", func(r chi.Router) {
			r.Use(RequireAPIKey(d.ExternalAPIKey))
			r.Post("/customers", d.External.UpsertCustomer)
			r.Post("/events", d.External.CreateEvent)
		})
	})

	return r
}
