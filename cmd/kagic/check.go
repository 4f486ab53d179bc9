package main

import (
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/you-not-fish/kagi/internal/codegen"
	"github.com/you-not-fish/kagi/internal/config"
	"github.com/you-not-fish/kagi/internal/interp"
	"github.com/you-not-fish/kagi/internal/layout"
	"github.com/you-not-fish/kagi/internal/rtlib"
)

// scenarioSize is the number of keys each scenario inserts.
const scenarioSize = 24

// element makes and reads keys or values of one layout.
type element struct {
	make func(m *interp.Machine, i int) interp.Value
	read func(m *interp.Machine, v interp.Value) (string, error)
}

var (
	i64Element = element{
		make: func(m *interp.Machine, i int) interp.Value { return interp.Int(int64(i)) },
		read: func(m *interp.Machine, v interp.Value) (string, error) {
			return strconv.FormatInt(v.AsInt(), 10), nil
		},
	}
	strElement = element{
		make: func(m *interp.Machine, i int) interp.Value { return rtlib.NewStr(m, strconv.Itoa(i)) },
		read: rtlib.ReadStr,
	}
)

// elementFor returns the scenario element for l, or false when l is
// neither i64 nor str.
func elementFor(l layout.Layout) (element, bool) {
	b, ok := l.(*layout.Builtin)
	if !ok {
		return element{}, false
	}
	switch b.Kind() {
	case layout.I64:
		return i64Element, true
	case layout.Str:
		return strElement, true
	}
	return element{}, false
}

// runCheck runs the built-in scenario for every configured dictionary
// whose key and value are i64 or str.
func runCheck(path string, log *zap.Logger) int {
	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ran, failed := 0, 0
	for i := range cfg.Dicts {
		d := &cfg.Dicts[i]
		key, kok := elementFor(d.KeyLayout())
		value, vok := elementFor(d.ValueLayout())
		if !kok || !vok {
			fmt.Printf("SKIP %s: dict<%s, %s>\n", d.Name, d.KeyLayout(), d.ValueLayout())
			continue
		}
		ran++
		if err := checkDict(cfg, d, key, value, log); err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", d.Name, err)
			continue
		}
		fmt.Printf("PASS %s\n", d.Name)
	}

	fmt.Printf("%d passed, %d failed\n", ran-failed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

// scenario drives the entry points of one dictionary on a machine.
type scenario struct {
	m          *interp.Machine
	name       string
	key, value element
}

// checkDict compiles every operation of d, independent of the configured
// op list, and runs the scenario against the reference runtime.
func checkDict(cfg *config.Config, d *config.Dict, key, value element, log *zap.Logger) error {
	mod, err := generate(cfg, func(env *codegen.Env) {
		for _, op := range codegen.Ops() {
			env.DefineEntry(d.Name, op, d.KeyLayout(), d.ValueLayout())
		}
	})
	if err != nil {
		return err
	}
	m := interp.New(mod)
	m.Log = log
	rtlib.Bind(m)
	s := &scenario{m: m, name: d.Name, key: key, value: value}
	return s.run()
}

func (s *scenario) call(op codegen.Op, args ...interp.Value) (interp.Value, error) {
	return s.m.Call(codegen.EntryName(s.name, op), args...)
}

func (s *scenario) len(d interp.Value) (int64, error) {
	r, err := s.call(codegen.OpLen, d)
	return r.AsInt(), err
}

// expectLen fails unless d holds want entries.
func (s *scenario) expectLen(what string, d interp.Value, want int64) error {
	n, err := s.len(d)
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("len(%s) = %d, want %d", what, n, want)
	}
	return nil
}

// lookup returns the value stored under key i, if any.
func (s *scenario) lookup(d interp.Value, i int) (string, bool, error) {
	r, err := s.call(codegen.OpGet, d, s.key.make(s.m, i))
	if err != nil || !r.Field(1).AsBool() {
		return "", false, err
	}
	v, err := s.value.read(s.m, r.Field(0))
	return v, true, err
}

// expectGet fails unless key i maps to the value made from want.
func (s *scenario) expectGet(what string, d interp.Value, i, want int) error {
	got, ok, err := s.lookup(d, i)
	if err != nil {
		return err
	}
	w, err := s.value.read(s.m, s.value.make(s.m, want))
	if err != nil {
		return err
	}
	if !ok || got != w {
		return fmt.Errorf("%s[%d] = %q, %v, want %q", what, i, got, ok, w)
	}
	return nil
}

// fill inserts key i -> value f(i) for every i in [lo, hi).
func (s *scenario) fill(lo, hi int, f func(int) int) (interp.Value, error) {
	d, err := s.call(codegen.OpEmpty)
	if err != nil {
		return d, err
	}
	for i := lo; i < hi; i++ {
		d, err = s.call(codegen.OpInsert, d, s.key.make(s.m, i), s.value.make(s.m, f(i)))
		if err != nil {
			return d, err
		}
	}
	return d, nil
}

func (s *scenario) run() error {
	const n = scenarioSize
	square := func(i int) int { return i * i }
	negate := func(i int) int { return -i }

	d, err := s.fill(0, n, square)
	if err != nil {
		return err
	}
	if err := s.expectLen("d", d, n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := s.expectGet("d", d, i, square(i)); err != nil {
			return err
		}
	}
	has, err := s.call(codegen.OpContains, d, s.key.make(s.m, n))
	if err != nil {
		return err
	}
	if has.AsBool() {
		return fmt.Errorf("d contains absent key %d", n)
	}

	// Remove the first quarter.
	for i := 0; i < n/4; i++ {
		if d, err = s.call(codegen.OpRemove, d, s.key.make(s.m, i)); err != nil {
			return err
		}
	}
	if err := s.expectLen("d after remove", d, n-n/4); err != nil {
		return err
	}
	if _, ok, err := s.lookup(d, 0); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("removed key 0 still present")
	}

	// d2 overlaps the second half of d and extends past it.
	d2, err := s.fill(n/2, n+n/2, negate)
	if err != nil {
		return err
	}
	u, err := s.call(codegen.OpUnion, d, d2)
	if err != nil {
		return err
	}
	if err := s.expectLen("union", u, n+n/2-n/4); err != nil {
		return err
	}
	if err := s.expectGet("union", u, n/2, negate(n/2)); err != nil {
		return err
	}
	if err := s.expectGet("union", u, n/4, square(n/4)); err != nil {
		return err
	}

	keys, err := s.call(codegen.OpKeys, u)
	if err != nil {
		return err
	}
	values, err := s.call(codegen.OpValues, u)
	if err != nil {
		return err
	}
	if want := uint64(n + n/2 - n/4); keys.Field(1).Lo != want || values.Field(1).Lo != want {
		return fmt.Errorf("keys/values lengths = %d/%d, want %d", keys.Field(1).Lo, values.Field(1).Lo, want)
	}

	in, err := s.call(codegen.OpIntersection, u, d2)
	if err != nil {
		return err
	}
	if err := s.expectLen("intersection", in, n); err != nil {
		return err
	}
	if err := s.expectGet("intersection", in, n, negate(n)); err != nil {
		return err
	}

	diff, err := s.call(codegen.OpDifference, d, d2)
	if err != nil {
		return err
	}
	if err := s.expectLen("difference", diff, n/2-n/4); err != nil {
		return err
	}
	return s.expectGet("difference", diff, n/4, square(n/4))
}
