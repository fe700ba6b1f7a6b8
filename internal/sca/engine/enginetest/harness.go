// Package enginetest wires a complete Engine over in-memory stores for service tests.
package enginetest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	consentmodel "github.com/wso2/xs2a-sca-engine/internal/consent/model"
	paymentmodel "github.com/wso2/xs2a-sca-engine/internal/payment/model"
	"github.com/wso2/xs2a-sca-engine/internal/profile"
	"github.com/wso2/xs2a-sca-engine/internal/sca/accesscheck"
	"github.com/wso2/xs2a-sca-engine/internal/sca/approach"
	"github.com/wso2/xs2a-sca-engine/internal/sca/chain"
	"github.com/wso2/xs2a-sca-engine/internal/sca/engine"
	"github.com/wso2/xs2a-sca-engine/internal/sca/errormapper"
	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/sca/processor"
	"github.com/wso2/xs2a-sca-engine/internal/sca/validation"
	"github.com/wso2/xs2a-sca-engine/internal/spi/mocks"
	"github.com/wso2/xs2a-sca-engine/internal/system/config"
	dbmodel "github.com/wso2/xs2a-sca-engine/internal/system/database/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/requestctx"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores/interfaces"
)

// Now is the fixed time seen by the engine.
var Now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// Options tune the ASPSP profile of the harness.
type Options struct {
	Approaches           []string
	ConfirmationMandated bool
	AisRedirectURL       string
	PiisRedirectURL      string
	PisRedirectURL       string
	PisCancellationURL   string
}

// Harness is an engine plus direct access to its stores.
type Harness struct {
	Engine         *engine.Engine
	Connector      *mocks.MockConnector
	Authorisations *Authorisations
	Consents       *Consents
	Payments       *Payments
	Audits         *StatusAudits
}

// New builds a harness. Zero options enable all approaches with redirect preferred.
func New(opts Options) *Harness {
	if len(opts.Approaches) == 0 {
		opts.Approaches = []string{"REDIRECT", "EMBEDDED", "DECOUPLED"}
	}
	if opts.AisRedirectURL == "" {
		opts.AisRedirectURL = "https://bank.example/ais/{redirect-id}/{encrypted-consent-id}"
	}
	if opts.PiisRedirectURL == "" {
		opts.PiisRedirectURL = "https://bank.example/piis/{redirect-id}/{encrypted-consent-id}"
	}
	if opts.PisRedirectURL == "" {
		opts.PisRedirectURL = "https://bank.example/pis/{redirect-id}/{encrypted-payment-id}"
	}
	if opts.PisCancellationURL == "" {
		opts.PisCancellationURL = "https://bank.example/pis-cancellation/{redirect-id}/{encrypted-payment-id}"
	}

	profiles := profile.NewStaticService(config.ProfileConfig{
		DefaultInstance: "default",
		Instances: map[string]config.AspspSettingsConfig{
			"default": {
				SupportedScaApproaches:                   opts.Approaches,
				AisRedirectURL:                           opts.AisRedirectURL,
				PiisRedirectURL:                          opts.PiisRedirectURL,
				PisRedirectURL:                           opts.PisRedirectURL,
				PisCancellationRedirectURL:               opts.PisCancellationURL,
				AuthorisationConfirmationRequestMandated: opts.ConfirmationMandated,
			},
		},
	})

	h := &Harness{
		Connector:      &mocks.MockConnector{},
		Authorisations: &Authorisations{items: map[string]model.Authorisation{}},
		Consents:       &Consents{items: map[string]consentmodel.Consent{}},
		Payments:       &Payments{items: map[string]paymentmodel.Payment{}},
		Audits:         &StatusAudits{},
	}

	clock := func() time.Time { return Now }
	mapper := errormapper.New(nil)
	registry := chain.NewRegistry().MustRegister(processor.Defaults(processor.Deps{
		Connector: h.Connector,
		Mapper:    mapper,
		Profiles:  profiles,
		Clock:     clock,
	})...)

	h.Engine = engine.New(engine.Engine{
		Stores:   stores.NewStoreRegistry(beginner{}, h.Authorisations, h.Consents, h.Payments, h.Audits),
		Resolver: approach.NewResolver(profiles, requestctx.NewProvider(), h.Authorisations, nil),
		Chain:    chain.NewService(registry, nil),
		Gate:     validation.NewGate(nil),
		Checker:  accesscheck.NewChecker(h.Authorisations),
		Profiles: profiles,
		Mapper:   mapper,
		Clock:    clock,
	})
	return h
}

type beginner struct{}

func (beginner) BeginTx() (dbmodel.TxInterface, error) { return tx{}, nil }

type tx struct{}

func (tx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) { return nil, nil }
func (tx) Commit() error { return nil }
func (tx) Rollback() error { return nil }

// Authorisations is an in-memory interfaces.AuthorisationStore.
type Authorisations struct {
	mu    sync.Mutex
	items map[string]model.Authorisation
}

var _ interfaces.AuthorisationStore = (*Authorisations)(nil)

// Put stores a copy of a.
func (s *Authorisations) Put(a model.Authorisation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[a.ID] = a
}

// Get returns the stored authorisation and whether it exists.
func (s *Authorisations) Get(id string) (model.Authorisation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	return a, ok
}

func (s *Authorisations) GetAuthorisationByID(_ context.Context, id string) (*model.Authorisation, error) {
	a, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrAuthorisationNotFound, id)
	}
	return &a, nil
}

func (s *Authorisations) ListByParent(_ context.Context, kind model.ResourceKind, parentID string) ([]model.Authorisation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Authorisation
	for _, a := range s.items {
		if a.Kind == kind && a.ParentID == parentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedTime == out[j].CreatedTime {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedTime < out[j].CreatedTime
	})
	return out, nil
}

func (s *Authorisations) Save(_ context.Context, _ dbmodel.TxInterface, a *model.Authorisation) error {
	s.Put(*a)
	return nil
}

// Consents is an in-memory interfaces.ConsentStore.
type Consents struct {
	mu    sync.Mutex
	items map[string]consentmodel.Consent
}

var _ interfaces.ConsentStore = (*Consents)(nil)

// Put stores a copy of c.
func (s *Consents) Put(c consentmodel.Consent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[c.ConsentID] = c
}

// Status returns the stored status of a consent.
func (s *Consents) Status(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id].Status
}

func (s *Consents) GetByID(_ context.Context, id string) (*consentmodel.Consent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", consentmodel.ErrConsentNotFound, id)
	}
	return &c, nil
}

func (s *Consents) UpdateStatus(_ context.Context, _ dbmodel.TxInterface, id, status string, updatedTime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.items[id]
	c.Status = status
	c.UpdatedTime = updatedTime
	s.items[id] = c
	return nil
}

// Payments is an in-memory interfaces.PaymentStore.
type Payments struct {
	mu    sync.Mutex
	items map[string]paymentmodel.Payment
}

var _ interfaces.PaymentStore = (*Payments)(nil)

// Put stores a copy of p.
func (s *Payments) Put(p paymentmodel.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.PaymentID] = p
}

// Status returns the stored transaction status of a payment.
func (s *Payments) Status(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id].TransactionStatus
}

func (s *Payments) GetByID(_ context.Context, id string) (*paymentmodel.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", paymentmodel.ErrPaymentNotFound, id)
	}
	return &p, nil
}

func (s *Payments) UpdateStatus(_ context.Context, _ dbmodel.TxInterface, id, status string, updatedTime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.items[id]
	p.TransactionStatus = status
	p.UpdatedTime = updatedTime
	s.items[id] = p
	return nil
}

// StatusAudits records the audit rows written by the engine.
type StatusAudits struct {
	mu   sync.Mutex
	rows []model.StatusAudit
}

var _ interfaces.StatusAuditStore = (*StatusAudits)(nil)

func (s *StatusAudits) Create(_ context.Context, _ dbmodel.TxInterface, a *model.StatusAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *a)
	return nil
}

// Rows returns the recorded audit rows in write order.
func (s *StatusAudits) Rows() []model.StatusAudit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.StatusAudit(nil), s.rows...)
}
