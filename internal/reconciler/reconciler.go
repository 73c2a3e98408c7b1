package reconciler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clinidoc/actd/internal/logger"
	"github.com/clinidoc/actd/internal/settings"
)

// DefaultTTL is how long a cached activation decision stays fresh.
const DefaultTTL = 5 * time.Minute

// DefaultAPIKey is presented to the authority when no api_key setting has
// been configured.
const DefaultAPIKey = "clinical_api_key_2025"

// Reconciler answers "is this instance permitted to run?" for one running
// application instance. It caches the last decision for a TTL, consults the
// durable settings store before the network, and degrades to the last
// durable value when the authority is unreachable or rejects the call.
type Reconciler struct {
	client *Client
	store  *settings.Store
	ttl    time.Duration

	mu           sync.Mutex
	cachedActive bool
	lastCheck    time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithTTL overrides the cache freshness interval.
func WithTTL(ttl time.Duration) Option {
	return func(r *Reconciler) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// New creates a Reconciler over the given authority client and durable
// settings store.
func New(client *Client, store *settings.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		client: client,
		store:  store,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsActive reports whether this instance is permitted to run. While the
// cache is fresh it returns immediately without touching the store or the
// network. Once stale it reconciles; any unexpected failure on that path is
// converted into the fail-open default rather than propagated, so a
// licensing check can never crash the application.
func (r *Reconciler) IsActive(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastCheck.IsZero() && time.Since(r.lastCheck) < r.ttl {
		return r.cachedActive
	}

	r.cachedActive = r.reconcile(ctx)
	r.lastCheck = time.Now()
	return r.cachedActive
}

// reconcile runs one reconciliation cycle and returns the new decision.
// The order is deliberate: a local durable override is honored before any
// remote call is attempted, so an operator can force-deactivate without
// network access.
func (r *Reconciler) reconcile(ctx context.Context) bool {
	local, err := r.store.Get(ctx, settings.KeyAppActive)
	if err != nil && !errors.Is(err, settings.ErrNotFound) {
		return r.failOpen(ctx, err)
	}
	if local == "false" {
		logger.Info(ctx, "Local override active, skipping remote check")
		return false
	}

	apiKey, err := r.store.Get(ctx, settings.KeyAPIKey)
	if err != nil && !errors.Is(err, settings.ErrNotFound) {
		return r.failOpen(ctx, err)
	}
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}

	resp, err := r.client.CheckActivation(ctx, apiKey)
	if err == nil {
		value := "false"
		if resp.Active {
			value = "true"
		}
		if putErr := r.store.Put(ctx, settings.KeyAppActive, value); putErr != nil {
			logger.Warn(ctx, "Failed to persist remote activation state", "err", putErr)
		}
		return resp.Active
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		// Reachable but rejected: the remote value is untrusted, fall back
		// to the last durable decision. The store is left as-is.
		logger.Warn(ctx, "Authority rejected activation check",
			"status", apiErr.StatusCode, "message", apiErr.Message)
		return local != "false"
	}

	// Unreachable or timed out: grace-period behavior. Never forces
	// deactivation, never overrides an existing local deactivation.
	logger.Warn(ctx, "Authority unreachable, using local activation state", "err", err)
	return local != "false"
}

// failOpen is the availability-over-enforcement policy: an unexpected
// reconciliation failure counts as active.
func (r *Reconciler) failOpen(ctx context.Context, err error) bool {
	logger.Error(ctx, "Reconciliation failed, defaulting to active", "err", err)
	return true
}

// ForceLocal writes the activation flag directly into the durable store,
// bypassing the authority. Intended for air-gapped emergency deactivation;
// it takes effect on the next reconciliation, after any fresh cache entry
// expires.
func (r *Reconciler) ForceLocal(ctx context.Context, active bool) error {
	value := "false"
	if active {
		value = "true"
	}
	return r.store.Put(ctx, settings.KeyAppActive, value)
}

// UpdateAPIKey replaces the credential presented to the authority.
func (r *Reconciler) UpdateAPIKey(ctx context.Context, apiKey string) error {
	return r.store.Put(ctx, settings.KeyAPIKey, apiKey)
}

// Diagnostics is a best-effort combined view of local, cached, and remote
// activation state for operator tooling.
type Diagnostics struct {
	InstanceID       string        `json:"instance_id,omitempty"`
	LocalActive      bool          `json:"local_active"`
	APIKeyConfigured bool          `json:"api_key_configured"`
	CachedStatus     bool          `json:"cached_status"`
	LastCheck        time.Time     `json:"last_check"`
	TTL              time.Duration `json:"ttl"`
	RemoteAvailable  bool          `json:"remote_available"`
	RemoteActive     *bool         `json:"remote_active,omitempty"`
	RemoteMessage    string        `json:"remote_message,omitempty"`
	RemoteError      string        `json:"remote_error,omitempty"`
}

// Diagnostics gathers the combined view. It never fails: any store or
// remote error is reported inside the result instead of returned.
func (r *Reconciler) Diagnostics(ctx context.Context) Diagnostics {
	r.mu.Lock()
	diag := Diagnostics{
		CachedStatus: r.cachedActive,
		LastCheck:    r.lastCheck,
		TTL:          r.ttl,
	}
	r.mu.Unlock()

	if id, err := r.store.InstanceID(ctx); err == nil {
		diag.InstanceID = id
	}

	diag.LocalActive = true
	if local, err := r.store.Get(ctx, settings.KeyAppActive); err == nil {
		diag.LocalActive = local != "false"
	}

	apiKey, err := r.store.Get(ctx, settings.KeyAPIKey)
	if err == nil && apiKey != "" {
		diag.APIKeyConfigured = true
	} else {
		apiKey = DefaultAPIKey
	}

	resp, err := r.client.CheckActivation(ctx, apiKey)
	if err != nil {
		diag.RemoteAvailable = false
		diag.RemoteError = err.Error()
		return diag
	}
	diag.RemoteAvailable = true
	diag.RemoteActive = &resp.Active
	diag.RemoteMessage = resp.Message
	return diag
}
