// Package session holds the signed-in identity of one client and the flows
// that change it: restore, login, registration, profile edits and logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ecofinds/ecofinds-core/internal/snapshot"
	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	"github.com/ecofinds/ecofinds-core/pkg/enums"
	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"github.com/ecofinds/ecofinds-core/pkg/gateway"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/metrics"
	"github.com/ecofinds/ecofinds-core/pkg/notify"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	storeName = "session"

	// DefaultSnapshotKey is where the identity snapshot is persisted.
	DefaultSnapshotKey = "ecofinds_current_user"

	msgInvalidCredentials = "Invalid email or password"
	msgSignInFailed       = "Unable to sign in. Please try again."
	msgAccountExists      = "An account with this email already exists"
	msgRegisterFailed     = "Registration failed. Please try again."
)

// State is what dependents render from.
type State struct {
	Identity *Identity `json:"identity"`
	Loading  bool      `json:"loading"`
	Errors   Errors    `json:"errors"`
}

// Authenticated reports whether an identity is current.
func (s State) Authenticated() bool {
	return s.Identity != nil
}

// StoreParams bundles the dependencies of a Store. Gateway is required.
type StoreParams struct {
	Gateway     gateway.Gateway
	Snapshots   snapshot.Store
	SnapshotKey string
	Logger      *logger.Logger
	Metrics     *metrics.StoreMetrics
}

// Store is the single source of truth for who is signed in.
type Store struct {
	gw          gateway.Gateway
	snapshots   snapshot.Store
	snapshotKey string
	logg        *logger.Logger
	metrics     *metrics.StoreMetrics

	mu       sync.RWMutex
	identity *Identity
	loading  bool
	errors   Errors
	draft    RegistrationDraft
	// epoch advances on every sign-in or sign-out transition so that a
	// profile fetch started under an older epoch cannot apply its result.
	epoch uint64

	profiles singleflight.Group
	pushMu   sync.Mutex
	hub      notify.Hub[State]

	wg          sync.WaitGroup
	unsubscribe func()
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if params.SnapshotKey == "" {
		params.SnapshotKey = DefaultSnapshotKey
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	s := &Store{
		gw:          params.Gateway,
		snapshots:   params.Snapshots,
		snapshotKey: params.SnapshotKey,
		logg:        params.Logger,
		metrics:     params.Metrics,
		errors:      Errors{},
		loading:     true,
	}
	s.unsubscribe = params.Gateway.OnAuthStateChange(s.onAuthEvent)
	return s, nil
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	st := State{Loading: s.loading, Errors: make(Errors, len(s.errors))}
	if s.identity != nil {
		id := *s.identity
		st.Identity = &id
	}
	for k, v := range s.errors {
		st.Errors[k] = v
	}
	return st
}

// Current returns the signed-in identity, or nil.
func (s *Store) Current() *Identity {
	return s.State().Identity
}

// Loading reports whether an identity decision is still pending.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Draft returns the staged registration draft.
func (s *Store) Draft() RegistrationDraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// Subscribe registers fn for every state change.
func (s *Store) Subscribe(fn func(State)) func() {
	return s.hub.Subscribe(fn)
}

func (s *Store) publish() {
	s.hub.Publish(s.State())
}

// Wait blocks until background reconciliation and sign-out calls finish.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close detaches from the gateway and waits for background work.
func (s *Store) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.Wait()
	return nil
}

func (s *Store) goAsync(ctx context.Context, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

// RestoreSession applies the persisted identity snapshot at once and then
// reconciles it against the gateway's live session in the background.
func (s *Store) RestoreSession(ctx context.Context) {
	snap := s.loadSnapshot(ctx)

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.identity = snap
	s.loading = true
	s.mu.Unlock()
	s.publish()

	s.goAsync(ctx, func(ctx context.Context) {
		s.reconcile(ctx, epoch, snap)
	})
}

func (s *Store) reconcile(ctx context.Context, epoch uint64, snap *Identity) {
	started := time.Now()
	live, err := s.gw.GetSession(ctx)
	s.metrics.Observe(storeName, "restore", started, err)
	if err != nil {
		s.logg.Error(ctx, "session.restore_failed", err)
	}
	if err != nil || live == nil {
		s.settle(ctx, epoch, nil)
		return
	}

	if snap != nil && snap.ID != live.UserID {
		s.mu.Lock()
		if s.epoch == epoch {
			s.identity = nil
		}
		s.mu.Unlock()
		s.publish()
	}
	s.resolveProfile(ctx, epoch, live.UserID)
}

// Login checks the credentials with the gateway and resolves the profile.
// It reports true only when both succeed.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	errs := ValidateLogin(email, password)
	if len(errs) > 0 {
		s.setErrors(errs)
		s.metrics.Skipped(storeName, "login")
		return false
	}

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.loading = true
	s.errors = Errors{}
	s.mu.Unlock()
	s.publish()

	started := time.Now()
	live, err := s.gw.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	s.metrics.Observe(storeName, "login", started, err)
	if err != nil {
		s.logg.Error(ctx, "session.login_failed", err)
		msg := msgSignInFailed
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			msg = msgInvalidCredentials
		}
		s.mu.Lock()
		if s.epoch == epoch {
			s.loading = false
			s.errors = Errors{GeneralKey: msg}
		}
		s.mu.Unlock()
		s.publish()
		return false
	}
	return s.resolveProfile(ctx, epoch, live.UserID)
}

// UpdateRegistrationDraft merges patch into the staged draft without
// validating it.
func (s *Store) UpdateRegistrationDraft(patch DraftPatch) RegistrationDraft {
	s.mu.Lock()
	s.draft = patch.Apply(s.draft)
	draft := s.draft
	s.mu.Unlock()
	return draft
}

// Register merges patch into the draft, validates it and creates the
// account. Field errors are published on the store. The profile row is
// created by the backend; the identity follows from the sign-in event.
func (s *Store) Register(ctx context.Context, patch DraftPatch) bool {
	draft := s.UpdateRegistrationDraft(patch)
	errs := ValidateRegistration(draft)
	s.setErrors(errs)
	if len(errs) > 0 {
		s.metrics.Skipped(storeName, "register")
		return false
	}

	d := draft.normalized()
	metadata := map[string]any{
		"first_name": d.FirstName,
		"last_name":  d.LastName,
		"username":   d.Username,
	}
	started := time.Now()
	_, err := s.gw.SignUp(ctx, d.Email, d.Password, metadata)
	s.metrics.Observe(storeName, "register", started, err)
	if err != nil {
		s.logg.Error(ctx, "session.register_failed", err)
		msg := msgRegisterFailed
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
			msg = msgAccountExists
		case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
			msg = pkgerrors.As(err).Message()
		}
		s.setErrors(Errors{GeneralKey: msg})
		return false
	}

	s.mu.Lock()
	s.draft = RegistrationDraft{}
	s.mu.Unlock()
	return true
}

// Logout clears the identity at once; the gateway sign-out runs in the
// background and its failure is only logged.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.epoch++
	s.identity = nil
	s.loading = false
	s.errors = Errors{}
	s.mu.Unlock()
	s.saveSnapshot(ctx, nil)
	s.publish()

	s.goAsync(ctx, func(ctx context.Context) {
		started := time.Now()
		err := s.gw.SignOut(ctx)
		s.metrics.Observe(storeName, "logout", started, err)
		if err != nil {
			s.logg.Error(ctx, "session.logout_failed", err)
		}
	})
}

// UpdateIdentity replaces the identity locally and persists it at once,
// then pushes the change and reconciles with the stored profile row in the
// background. A failed push ends with the stored row restored locally.
func (s *Store) UpdateIdentity(ctx context.Context, next Identity) error {
	next.Email = strings.TrimSpace(next.Email)
	next.Username = strings.TrimSpace(next.Username)
	if errs := ValidateProfile(next.Email, next.Username); len(errs) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid profile").WithDetails(map[string]string(errs))
	}

	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		s.metrics.Skipped(storeName, "update_identity")
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	if s.identity.ID != next.ID {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeForbidden, "identity belongs to another user")
	}
	updated := *s.identity
	updated.Email = next.Email
	updated.Username = next.Username
	s.identity = &updated
	epoch := s.epoch
	s.mu.Unlock()
	s.saveSnapshot(ctx, &updated)
	s.publish()

	s.goAsync(ctx, func(ctx context.Context) {
		s.pushIdentity(ctx, epoch, updated)
	})
	return nil
}

func (s *Store) pushIdentity(ctx context.Context, epoch uint64, next Identity) {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	started := time.Now()
	err := s.gw.Update(ctx, gateway.TableProfiles,
		[]gateway.Filter{gateway.Eq("id", next.ID)},
		map[string]any{"username": next.Username, "email": next.Email},
	)
	s.metrics.Observe(storeName, "update_identity", started, err)
	if err != nil {
		s.logg.Error(ctx, "session.identity_push_failed", err)
	}

	stored, err := s.loadProfile(ctx, next.ID)
	if err != nil {
		s.logg.Error(ctx, "session.identity_reconcile_failed", err)
		return
	}

	s.mu.Lock()
	if s.epoch != epoch || s.identity == nil || s.identity.ID != stored.ID {
		s.mu.Unlock()
		return
	}
	s.identity = stored
	s.mu.Unlock()
	s.saveSnapshot(ctx, stored)
	s.publish()
}

func (s *Store) setErrors(errs Errors) {
	s.mu.Lock()
	s.errors = errs
	s.mu.Unlock()
	s.publish()
}

// onAuthEvent follows session transitions that did not originate here, such
// as a sign-up that signs the user in or a token expiring.
func (s *Store) onAuthEvent(evt gateway.AuthEvent) {
	ctx := context.Background()
	switch {
	case evt.Type == enums.AuthEventSignedOut:
		s.mu.Lock()
		if s.identity == nil && !s.loading {
			s.mu.Unlock()
			return
		}
		s.epoch++
		s.identity = nil
		s.loading = false
		s.mu.Unlock()
		s.saveSnapshot(ctx, nil)
		s.publish()
	case evt.Type.CarriesSession() && evt.Session != nil:
		s.mu.RLock()
		known := s.identity != nil && s.identity.ID == evt.Session.UserID
		epoch := s.epoch
		s.mu.RUnlock()
		if known {
			return
		}
		userID := evt.Session.UserID
		s.goAsync(ctx, func(ctx context.Context) {
			s.resolveProfile(ctx, epoch, userID)
		})
	}
}

// resolveProfile runs the fetch-profile sub-flow: on success the identity is
// set, on failure it is left unset. Either way loading ends.
func (s *Store) resolveProfile(ctx context.Context, epoch uint64, userID uuid.UUID) bool {
	identity, err := s.fetchProfile(ctx, userID)
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "session.profile_fetch_failed", err)
	}
	return s.settle(ctx, epoch, identity) && err == nil
}

// settle ends loading with identity, unless a newer transition superseded
// epoch. It reports whether the result was applied.
func (s *Store) settle(ctx context.Context, epoch uint64, identity *Identity) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.identity = identity
	s.loading = false
	s.mu.Unlock()
	s.saveSnapshot(ctx, identity)
	s.publish()
	return true
}

// fetchProfile coalesces concurrent fetches of the same profile.
func (s *Store) fetchProfile(ctx context.Context, userID uuid.UUID) (*Identity, error) {
	v, err, _ := s.profiles.Do(userID.String(), func() (any, error) {
		return s.loadProfile(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	id := *v.(*Identity)
	return &id, nil
}

func (s *Store) loadProfile(ctx context.Context, userID uuid.UUID) (*Identity, error) {
	started := time.Now()
	row, err := gateway.First[models.Profile](ctx, s.gw, gateway.TableProfiles, gateway.Where(gateway.Eq("id", userID)))
	s.metrics.Observe(storeName, "fetch_profile", started, err)
	if err != nil {
		return nil, err
	}
	id := FromProfile(*row)
	return &id, nil
}

func (s *Store) loadSnapshot(ctx context.Context) *Identity {
	if s.snapshots == nil {
		return nil
	}
	raw, err := s.snapshots.Load(ctx, s.snapshotKey)
	if errors.Is(err, snapshot.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logg.Error(ctx, "session.snapshot_load_failed", err)
		return nil
	}
	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil || id.ID == uuid.Nil {
		s.logg.Warn(ctx, "session.snapshot_discarded")
		return nil
	}
	return &id
}

func (s *Store) saveSnapshot(ctx context.Context, id *Identity) {
	if s.snapshots == nil {
		return
	}
	var err error
	if id == nil {
		err = s.snapshots.Delete(ctx, s.snapshotKey)
	} else {
		var raw []byte
		if raw, err = json.Marshal(id); err == nil {
			err = s.snapshots.Save(ctx, s.snapshotKey, raw)
		}
	}
	if err != nil {
		s.logg.Error(ctx, "session.snapshot_save_failed", err)
	}
}
