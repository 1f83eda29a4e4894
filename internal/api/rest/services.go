package rest

import (
	"context"
	"net/http"

	"github.com/AliShanawar/sitelink/internal/models"
)

// Resource is a thin CRUD wrapper over one API collection. Every entity
// service is an instance of it; none carry any behavior beyond appending
// filters and decoding the envelope.
type Resource[T any] struct {
	c    *Client
	path string
}

func (r Resource[T]) List(ctx context.Context, q ListQuery) ([]T, *models.Pagination, error) {
	var items []T
	page, err := r.c.do(ctx, http.MethodGet, r.path, q.values(), nil, &items)
	if err != nil {
		return nil, nil, err
	}
	return items, page, nil
}

func (r Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var item T
	_, err := r.c.do(ctx, http.MethodGet, r.path+"/"+id, nil, nil, &item)
	return item, err
}

func (r Resource[T]) Create(ctx context.Context, in T) (T, error) {
	var item T
	_, err := r.c.do(ctx, http.MethodPost, r.path, nil, in, &item)
	return item, err
}

func (r Resource[T]) Update(ctx context.Context, id string, in T) (T, error) {
	var item T
	_, err := r.c.do(ctx, http.MethodPut, r.path+"/"+id, nil, in, &item)
	return item, err
}

func (r Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.c.do(ctx, http.MethodDelete, r.path+"/"+id, nil, nil, nil)
	return err
}

// Services bundles every API surface behind one shared client.
type Services struct {
	Auth       AuthService
	Sites      Resource[models.Site]
	Tasks      Resource[models.Task]
	Inventory  Resource[models.InventoryItem]
	Feedback   Resource[models.Feedback]
	Complaints Resource[models.Complaint]
	SafetyLogs Resource[models.SafetyLog]
	WorkPacks  Resource[models.WorkPack]
	Employees  Resource[models.Employee]
}

func NewServices(c *Client) *Services {
	return &Services{
		Auth:       NewAuthService(c),
		Sites:      Resource[models.Site]{c: c, path: "/api/sites"},
		Tasks:      Resource[models.Task]{c: c, path: "/api/tasks"},
		Inventory:  Resource[models.InventoryItem]{c: c, path: "/api/inventory"},
		Feedback:   Resource[models.Feedback]{c: c, path: "/api/feedback"},
		Complaints: Resource[models.Complaint]{c: c, path: "/api/complaints"},
		SafetyLogs: Resource[models.SafetyLog]{c: c, path: "/api/safety-logs"},
		WorkPacks:  Resource[models.WorkPack]{c: c, path: "/api/work-packs"},
		Employees:  Resource[models.Employee]{c: c, path: "/api/employees"},
	}
}
