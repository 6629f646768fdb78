// Package policy decides which projects may submit events.
package policy

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sentrytypes/sentrytypes/config"
	"github.com/sentrytypes/sentrytypes/dsn"
)

type Policy struct {
	allow   bool
	except  map[dsn.ProjectID]struct{}
	rwmutex sync.RWMutex
}

func New(cfg config.Policy) (*Policy, error) {
	policy := new(Policy)
	if err := policy.Config(cfg); err != nil {
		return nil, err
	}
	return policy, nil
}

// Allowed returns true if the policy allows the project to submit events.
func (p *Policy) Allowed(projectID dsn.ProjectID) bool {
	p.rwmutex.RLock()
	defer p.rwmutex.RUnlock()

	_, ok := p.except[projectID]
	if p.allow {
		return !ok
	}
	return ok
}

// Allow alters the policy to allow the specified project. Returns true if
// the policy needed to be updated.
func (p *Policy) Allow(projectID dsn.ProjectID) bool {
	p.rwmutex.Lock()
	defer p.rwmutex.Unlock()

	if p.allow {
		return p.removeExcept(projectID)
	}
	return p.addExcept(projectID)
}

// Block alters the policy to not allow the specified project. Returns true
// if the policy needed to be updated.
func (p *Policy) Block(projectID dsn.ProjectID) bool {
	p.rwmutex.Lock()
	defer p.rwmutex.Unlock()

	if p.allow {
		return p.addExcept(projectID)
	}
	return p.removeExcept(projectID)
}

func (p *Policy) addExcept(projectID dsn.ProjectID) bool {
	if _, ok := p.except[projectID]; ok {
		return false
	}
	if p.except == nil {
		p.except = make(map[dsn.ProjectID]struct{})
	}
	p.except[projectID] = struct{}{}
	return true
}

func (p *Policy) removeExcept(projectID dsn.ProjectID) bool {
	if _, ok := p.except[projectID]; !ok {
		return false
	}
	delete(p.except, projectID)
	return true
}

// Config applies the configuration.
func (p *Policy) Config(cfg config.Policy) error {
	except := make(map[dsn.ProjectID]struct{}, len(cfg.Except))
	for _, s := range cfg.Except {
		id, err := dsn.ParseProjectID(s)
		if err != nil {
			return fmt.Errorf("cannot read except list: %w", err)
		}
		except[id] = struct{}{}
	}
	if !cfg.Allow && len(except) == 0 {
		return errors.New("policy does not allow any projects")
	}

	p.rwmutex.Lock()
	defer p.rwmutex.Unlock()
	p.allow = cfg.Allow
	p.except = except
	return nil
}

// ToConfig converts a Policy into a config.Policy.
func (p *Policy) ToConfig() config.Policy {
	p.rwmutex.RLock()
	defer p.rwmutex.RUnlock()

	except := make([]string, 0, len(p.except))
	for id := range p.except {
		except = append(except, id.String())
	}
	sort.Strings(except)
	return config.Policy{
		Allow:  p.allow,
		Except: except,
	}
}
