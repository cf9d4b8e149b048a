package admin

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ateliercarvalho/atelier/internal/apiclient"
	"github.com/ateliercarvalho/atelier/internal/booking"
)

const (
	MsgCustomerName     = "Informe o nome do cliente."
	MsgCustomerPhone    = "Informe um telefone válido."
	MsgCustomerPassword = "A senha deve ter pelo menos 6 caracteres."
)

// CustomerService manages studio customers through the admin API.
type CustomerService struct {
	client *apiclient.Client
}

func NewCustomerService(client *apiclient.Client) *CustomerService {
	return &CustomerService{client: client}
}

func (s *CustomerService) List(ctx context.Context) ([]Customer, error) {
	out := []Customer{}
	if err := s.client.Get(ctx, "/customers", nil, &out); err != nil {
		return nil, fmt.Errorf("admin: list customers: %w", err)
	}
	return out, nil
}

// Search matches name, email or phone. An empty filter lists everyone.
func (s *CustomerService) Search(ctx context.Context, filter string) ([]Customer, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return s.List(ctx)
	}
	out := []Customer{}
	if err := s.client.Get(ctx, "/customers/search", url.Values{"filter": {filter}}, &out); err != nil {
		return nil, fmt.Errorf("admin: search customers: %w", err)
	}
	return out, nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (*Customer, error) {
	var out Customer
	if err := s.client.Get(ctx, "/customers/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("admin: get customer %s: %w", id, err)
	}
	return &out, nil
}

func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CreateCustomerResponse, error) {
	req, err := normalizeCustomer(req)
	if err != nil {
		return nil, err
	}
	var out CreateCustomerResponse
	if err := s.client.Post(ctx, "/customers", req, &out); err != nil {
		return nil, fmt.Errorf("admin: create customer: %w", err)
	}
	return &out, nil
}

func (s *CustomerService) Update(ctx context.Context, id string, req UpdateCustomerRequest) error {
	norm, err := normalizeCustomer(CreateCustomerRequest{Name: req.Name, Phone: req.Phone, Email: req.Email, TaxNumber: req.TaxNumber})
	if err != nil {
		return err
	}
	req.Name, req.Phone, req.Email = norm.Name, norm.Phone, norm.Email
	if err := s.client.Put(ctx, "/customers/"+url.PathEscape(id), req, nil); err != nil {
		return fmt.Errorf("admin: update customer %s: %w", id, err)
	}
	return nil
}

func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/customers/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("admin: delete customer %s: %w", id, err)
	}
	return nil
}

func normalizeCustomer(req CreateCustomerRequest) (CreateCustomerRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		return req, &ValidationError{Field: "name", Message: MsgCustomerName}
	}
	if !booking.ValidPhone(req.Phone) {
		return req, &ValidationError{Field: "phone", Message: MsgCustomerPhone}
	}
	req.Phone = booking.Digits(req.Phone)
	if req.CreateUserAccount && len(req.Password) < 6 {
		return req, &ValidationError{Field: "password", Message: MsgCustomerPassword}
	}
	if !req.CreateUserAccount {
		req.Password = ""
	}
	return req, nil
}
