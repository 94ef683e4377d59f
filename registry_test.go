package activestorage

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func stubFactory(_ context.Context, _ map[string]string) (Driver, error) {
	return newMemDriver(), nil
}

func TestRegisterAndOpen(t *testing.T) {
	Register("registry-test", stubFactory)
	defer Unregister("registry-test")

	store, err := Open(context.Background(), "registry-test", nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store == nil {
		t.Fatal("Open returned nil store")
	}

	ctx := context.Background()
	if err := store.Write(ctx, "file.txt", []byte("content")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "no-such-driver", nil)
	if !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Open error = %v, want ErrUnknownDriver", err)
	}
}

func TestOpenFactoryError(t *testing.T) {
	factoryErr := fmt.Errorf("%w: bad settings", ErrConfiguration)
	Register("registry-test-failing", func(_ context.Context, _ map[string]string) (Driver, error) {
		return nil, factoryErr
	})
	defer Unregister("registry-test-failing")

	_, err := Open(context.Background(), "registry-test-failing", nil)
	if !errors.Is(err, factoryErr) {
		t.Errorf("Open error = %v, want factory error", err)
	}
}

func TestRegisterNilFactoryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register with nil factory did not panic")
		}
	}()
	Register("registry-test-nil", nil)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("registry-test-dup", stubFactory)
	defer Unregister("registry-test-dup")

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register("registry-test-dup", stubFactory)
}

func TestIsRegistered(t *testing.T) {
	if IsRegistered("registry-test-absent") {
		t.Error("IsRegistered = true for unregistered driver")
	}

	Register("registry-test-absent", stubFactory)
	defer Unregister("registry-test-absent")

	if !IsRegistered("registry-test-absent") {
		t.Error("IsRegistered = false for registered driver")
	}
}

func TestUnregister(t *testing.T) {
	Register("registry-test-remove", stubFactory)

	if !Unregister("registry-test-remove") {
		t.Error("Unregister = false for registered driver")
	}
	if Unregister("registry-test-remove") {
		t.Error("second Unregister = true, want false")
	}
}

func TestDriversSorted(t *testing.T) {
	Register("registry-test-zz", stubFactory)
	defer Unregister("registry-test-zz")
	Register("registry-test-aa", stubFactory)
	defer Unregister("registry-test-aa")

	names := Drivers()
	var aa, zz int = -1, -1
	for i, name := range names {
		switch name {
		case "registry-test-aa":
			aa = i
		case "registry-test-zz":
			zz = i
		}
	}
	if aa == -1 || zz == -1 {
		t.Fatalf("Drivers() = %v, missing registered names", names)
	}
	if aa > zz {
		t.Errorf("Drivers() = %v, want sorted order", names)
	}
}
