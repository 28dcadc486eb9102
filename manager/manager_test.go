package manager

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

type greeter interface{ Greet() string }

type english struct{ id int }

func (e *english) Greet() string { return "hello" }

type french struct{}

func (french) Greet() string { return "bonjour" }

// factories exposes drivers through the naming convention.
type factories struct{ calls int }

func (f *factories) CreateEnglishDriver() greeter {
	f.calls++
	return &english{id: f.calls}
}

func (f *factories) CreateFrenchDriver() (greeter, error) { return french{}, nil }

func (f *factories) CreateBrokenDriver() (greeter, error) {
	return nil, errors.New("boom")
}

func (f *factories) CreateNilDriver() greeter { return nil }

func (f *factories) CreateWrongTypeDriver() string { return "nope" }

func (f *factories) CreateWithArgsDriver(string) greeter { return french{} }

func (f *factories) CreateReadReplicaDriver() greeter { return french{} }

func newGreeters(def string, f *factories) *Manager[greeter] {
	return New[greeter](func() string { return def }, WithName[greeter]("greeter"), WithFactory[greeter](f))
}

func mustDriver(t *testing.T, m *Manager[greeter], name string) greeter {
	t.Helper()
	d, err := m.Driver(name)
	if err != nil {
		t.Fatalf("Driver(%q): %v", name, err)
	}
	return d
}

func TestDriver_DefaultViaFactoryConvention(t *testing.T) {
	f := &factories{}
	m := newGreeters("english", f)

	d := mustDriver(t, m, "")
	if d.Greet() != "hello" {
		t.Fatalf("Greet = %q", d.Greet())
	}
	if again := mustDriver(t, m, "english"); again != d {
		t.Fatalf("drivers are not cached")
	}
	if f.calls != 1 {
		t.Fatalf("factory ran %d times, want 1", f.calls)
	}
	if got := m.Drivers(); !reflect.DeepEqual(got, []string{"english"}) {
		t.Fatalf("Drivers = %v", got)
	}
}

func TestDriver_FactoryWithErrorReturn(t *testing.T) {
	m := newGreeters("", &factories{})

	if got := mustDriver(t, m, "french").Greet(); got != "bonjour" {
		t.Fatalf("french Greet = %q", got)
	}
	if got := mustDriver(t, m, "read-replica").Greet(); got != "bonjour" {
		t.Fatalf("read-replica Greet = %q", got)
	}
}

func TestDriver_NoDefault(t *testing.T) {
	m := New[greeter](nil)
	_, err := m.Driver("")
	if !errors.Is(err, ErrDriverNotResolved) {
		t.Fatalf("expected ErrDriverNotResolved, got %v", err)
	}

	var de *Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if de.Code != CodeNoDefaultDriver {
		t.Fatalf("Code = %v", de.Code)
	}
	if de.MessageID() != "errors.driver.no_default_driver" {
		t.Fatalf("MessageID = %q", de.MessageID())
	}
}

func TestDriver_Unsupported(t *testing.T) {
	m := newGreeters("", &factories{})
	_, err := m.Driver("klingon")
	if !errors.Is(err, ErrDriverNotResolved) || !errors.Is(err, &Error{Code: CodeUnsupportedDriver}) {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
	if err.Error() != `greeter: driver "klingon" is not supported` {
		t.Fatalf("message = %q", err)
	}

	var de *Error
	if !errors.As(err, &de) || de.TemplateData()["driver"] != "klingon" {
		t.Fatalf("template data missing driver: %v", err)
	}

	if _, err := New[greeter](nil).Driver("klingon"); !errors.Is(err, ErrDriverNotResolved) {
		t.Fatalf("no factory receiver: got %v", err)
	}
}

func TestDriver_InvalidFactories(t *testing.T) {
	m := newGreeters("", &factories{})
	for _, name := range []string{"nil", "wrong-type", "with-args"} {
		if _, err := m.Driver(name); !errors.Is(err, &Error{Code: CodeInvalidDriver}) {
			t.Errorf("%s: expected invalid driver, got %v", name, err)
		}
	}
}

func TestDriver_CreatorErrorsAreNotCached(t *testing.T) {
	m := New[greeter](nil, WithName[greeter]("greeter"))
	fail := true
	m.Register("flaky", func() (greeter, error) {
		if fail {
			return nil, errors.New("not yet")
		}
		return french{}, nil
	})

	_, err := m.Driver("flaky")
	if err == nil || errors.Is(err, ErrDriverNotResolved) {
		t.Fatalf("expected a creation error, got %v", err)
	}
	if !strings.Contains(err.Error(), `greeter: create driver "flaky": not yet`) {
		t.Fatalf("message = %q", err)
	}
	if n := len(m.Drivers()); n != 0 {
		t.Fatalf("%d drivers cached after failure", n)
	}

	fail = false
	if got := mustDriver(t, m, "flaky").Greet(); got != "bonjour" {
		t.Fatalf("Greet = %q", got)
	}
}

func TestDriver_FactoryErrorPropagates(t *testing.T) {
	m := newGreeters("", &factories{})
	_, err := m.Driver("broken")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestExtend_OverridesBuiltinAndFactory(t *testing.T) {
	f := &factories{}
	m := newGreeters("english", f)

	if got := mustDriver(t, m, "english").Greet(); got != "hello" {
		t.Fatalf("Greet = %q", got)
	}

	m.Extend("english", func() (greeter, error) { return french{}, nil })
	if got := mustDriver(t, m, "english").Greet(); got != "bonjour" {
		t.Fatalf("custom creator did not replace the cached instance: %q", got)
	}

	m.Register("custom", func() (greeter, error) { return &english{}, nil })
	m.Extend("custom", func() (greeter, error) { return french{}, nil })
	if got := mustDriver(t, m, "custom").Greet(); got != "bonjour" {
		t.Fatalf("Greet = %q", got)
	}
	if got := m.Supported(); !reflect.DeepEqual(got, []string{"custom", "english"}) {
		t.Fatalf("Supported = %v", got)
	}
}

func TestForgetAndPurge(t *testing.T) {
	f := &factories{}
	m := newGreeters("english", f)

	a := mustDriver(t, m, "english")
	m.Forget("english")
	if b := mustDriver(t, m, "english"); a == b {
		t.Fatalf("Forget kept the cached instance")
	}
	if f.calls != 2 {
		t.Fatalf("factory ran %d times, want 2", f.calls)
	}

	mustDriver(t, m, "french")
	if purged := m.Purge(); len(purged) != 2 {
		t.Fatalf("Purge returned %d drivers, want 2", len(purged))
	}
	if n := len(m.Drivers()); n != 0 {
		t.Fatalf("%d drivers left after Purge", n)
	}
}

func TestDriver_ConcurrentCreatesOnce(t *testing.T) {
	var created atomic.Int32
	m := New[greeter](func() string { return "slow" })
	m.Register("slow", func() (greeter, error) {
		created.Add(1)
		return &english{}, nil
	})

	var wg sync.WaitGroup
	results := make([]greeter, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := m.Driver("")
			if err == nil {
				results[i] = d
			}
		}(i)
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Fatalf("creator ran %d times, want 1", created.Load())
	}
	for i, r := range results {
		if r != results[0] {
			t.Fatalf("goroutine %d got a different instance", i)
		}
	}
}

func TestStudly(t *testing.T) {
	tests := map[string]string{
		"bcrypt":       "Bcrypt",
		"read-replica": "ReadReplica",
		"read_replica": "ReadReplica",
		"argon2id":     "Argon2id",
		"myDriver":     "MyDriver",
		"":             "",
	}
	for in, want := range tests {
		if got := Studly(in); got != want {
			t.Errorf("Studly(%q) = %q, want %q", in, got, want)
		}
	}
	if got := FactoryMethod("bcrypt"); got != "CreateBcryptDriver" {
		t.Fatalf("FactoryMethod = %q", got)
	}
}
