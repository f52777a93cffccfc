package access

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fastprodman/wagerhouse/internal/events"
)

// ErrUnauthorized is returned when a privileged call does not come from the owner.
var ErrUnauthorized = errors.New("unauthorized")

// Registry tracks which callers may move treasury funds and which assets
// the treasury custodies. Only the owner can change either list.
type Registry struct {
	mu         sync.RWMutex
	owner      common.Address
	authorized map[common.Address]bool
	accepted   map[common.Address]bool
	emitter    events.Emitter
}

func New(owner common.Address, emitter events.Emitter) *Registry {
	return &Registry{
		owner:      owner,
		authorized: make(map[common.Address]bool),
		accepted:   make(map[common.Address]bool),
		emitter:    events.Or(emitter),
	}
}

func (r *Registry) Owner() common.Address { return r.owner }

// SetAuthorizedContract enables or disables caller. Repeating the same
// setting is allowed and still emits an event.
func (r *Registry) SetAuthorizedContract(sender, caller common.Address, enabled bool) error {
	if sender != r.owner {
		return ErrUnauthorized
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if enabled {
		r.authorized[caller] = true
	} else {
		delete(r.authorized, caller)
	}

	r.emitter.Emit(events.ContractAuthorized{Caller: caller, Enabled: enabled})

	return nil
}

func (r *Registry) SetAcceptedToken(sender, asset common.Address, enabled bool) error {
	if sender != r.owner {
		return ErrUnauthorized
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if enabled {
		r.accepted[asset] = true
	} else {
		delete(r.accepted, asset)
	}

	r.emitter.Emit(events.TokenAccepted{Asset: asset, Enabled: enabled})

	return nil
}

func (r *Registry) IsAuthorized(caller common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.authorized[caller]
}

func (r *Registry) IsAccepted(asset common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.accepted[asset]
}
