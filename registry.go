package activestorage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DriverFactory)
)

// DriverFactory builds a Driver from a flat string configuration, the form
// declarative config files and environment blocks naturally decode into.
// Construction that performs I/O (disk root creation, cloud client and
// credential resolution) honors the context; purely in-memory construction
// completes without touching it.
type DriverFactory func(ctx context.Context, config map[string]string) (Driver, error)

// Register makes a driver available to Open under the given name. Driver
// packages call it from init(), so importing a driver package is all it
// takes to enable its name:
//
//	import _ "github.com/kaplanelad/active-storage/driver/disk"
//
// A nil factory or a name that is already taken is a programming error and
// panics.
func Register(name string, factory DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if factory == nil {
		panic("activestorage: nil DriverFactory registered for " + name)
	}
	if _, dup := drivers[name]; dup {
		panic("activestorage: driver name already registered: " + name)
	}
	drivers[name] = factory
}

// Open resolves a driver name and its configuration into a ready-to-use
// Store:
//
//	store, err := activestorage.Open(ctx, "s3", map[string]string{
//	    "bucket": "my-bucket",
//	    "region": "us-west-2",
//	})
//
// The config map goes to the driver's factory untouched; each driver
// package documents its keys on its ConfigFromMap. An unregistered name
// yields ErrUnknownDriver; factory failures surface as ErrConfiguration or
// ErrConnection depending on what went wrong.
func Open(ctx context.Context, name string, config map[string]string) (*Store, error) {
	driversMu.RLock()
	factory, ok := drivers[name]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}

	driver, err := factory(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewStore(driver), nil
}

// Drivers returns the registered driver names in sorted order.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether Open would recognize name.
func IsRegistered(name string) bool {
	driversMu.RLock()
	defer driversMu.RUnlock()
	_, ok := drivers[name]
	return ok
}

// Unregister removes name from the registry, reporting whether it was
// present. Tests use it to clean up after registering stand-in drivers.
func Unregister(name string) bool {
	driversMu.Lock()
	defer driversMu.Unlock()

	if _, ok := drivers[name]; ok {
		delete(drivers, name)
		return true
	}
	return false
}
