package client

import (
	"context"
	"fmt"
	"strings"

	"devisportal/internal/pkg/actor"
)

type clientRepository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id int64) (*Client, error)
	GetByUserID(ctx context.Context, userID int64) (*Client, error)
	First(ctx context.Context) (*Client, error)
	List(ctx context.Context) ([]Client, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id int64) error
	AddHistorique(ctx context.Context, h *Historique) error
	ListHistorique(ctx context.Context, clientID int64) ([]Historique, error)
}

type Service struct {
	repo    clientRepository
	loggerf func(format string, args ...interface{})
}

func NewService(repo clientRepository, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{repo: repo, loggerf: loggerf}
}

func (s *Service) List(ctx context.Context) ([]Client, error) {
	return s.repo.List(ctx)
}

// Get returns the client if the actor is an admin or the client itself.
func (s *Service) Get(ctx context.Context, a actor.Actor, id int64) (*Client, error) {
	if !a.Owns(id) {
		return nil, ErrForbidden
	}
	return s.repo.GetByID(ctx, id)
}

// Lookup is an unchecked read used by other services.
func (s *Service) Lookup(ctx context.Context, id int64) (*Client, error) {
	return s.repo.GetByID(ctx, id)
}

// Default is the client OCR imports are booked to when none is given.
func (s *Service) Default(ctx context.Context) (*Client, error) {
	return s.repo.First(ctx)
}

func (s *Service) Me(ctx context.Context, a actor.Actor) (*Client, error) {
	if a.ClientID != 0 {
		return s.repo.GetByID(ctx, a.ClientID)
	}
	return s.repo.GetByUserID(ctx, a.UserID)
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest) (*Client, error) {
	c := &Client{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		CountryCode: req.CountryCode,
	}
	if c.CountryCode == "" {
		c.CountryCode = DefaultCountryCode
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		c.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		c.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.CountryCode != nil {
		c.CountryCode = *req.CountryCode
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Record appends to the activity log. Write failures are only logged.
func (s *Service) Record(ctx context.Context, clientID int64, action string) {
	if err := s.repo.AddHistorique(ctx, &Historique{ClientID: clientID, Action: action}); err != nil {
		s.loggerf("level=error msg=historique write failed client_id=%d err=%v", clientID, err)
	}
}

func (s *Service) AddHistorique(ctx context.Context, req CreateHistoriqueRequest) (*Historique, error) {
	action := strings.TrimSpace(req.Action)
	if action == "" {
		return nil, ErrEmptyAction
	}
	if _, err := s.repo.GetByID(ctx, req.ClientID); err != nil {
		return nil, err
	}
	h := &Historique{ClientID: req.ClientID, Action: action}
	if err := s.repo.AddHistorique(ctx, h); err != nil {
		return nil, fmt.Errorf("save historique: %w", err)
	}
	return h, nil
}

func (s *Service) History(ctx context.Context, a actor.Actor, clientID int64) ([]Historique, error) {
	if !a.Owns(clientID) {
		return nil, ErrForbidden
	}
	if _, err := s.repo.GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	return s.repo.ListHistorique(ctx, clientID)
}
