package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"com.github.sebastianobarrera.modeledjs/jsfunc"
	tsparser "com.github.sebastianobarrera.modeledjs/jsfunc/ts-parser"
	"github.com/mattn/go-isatty"
	yaml "gopkg.in/yaml.v3"
)

var (
	casesFile  = flag.String("cases", "cases.yaml", "YAML file listing the cases to run")
	configFile = flag.String("config", "", "YAML engine configuration")
	singleCase = flag.String("single", "", "Run only the case with this name")
	showAST    = flag.Bool("showAST", false, "Dump the syntax tree of every compiled function")
	parseOnly  = flag.Bool("parseOnly", false, "Stop at parsing the synthesized source; the case succeeds if it parses as expected")
	cpuProfile = flag.String("cpuProfile", "", "Write CPU profile to this file")
)

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		cpuf, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatalf("can't create cpu profile file: %s: %s", *cpuProfile, err)
		}
		pprof.StartCPUProfile(cpuf)
		defer pprof.StopCPUProfile()
	}

	cfg := jsfunc.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = jsfunc.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("while loading config %s: %s", *configFile, err)
		}
	}

	cases, err := readCaseFile(*casesFile)
	if err != nil {
		log.Fatalf("while parsing %s: %s", *casesFile, err)
	}

	if *singleCase != "" {
		for _, c := range cases {
			if c.Name == *singleCase {
				log.Println("running single case:", c.Name)
				co := runCase(cfg, c)
				log.Printf("vm %s: %v", co.VMID, co.Error)
				return
			}
		}
		log.Fatalf("no case named %q in %s", *singleCase, *casesFile)
	}

	result := runMany(cfg, cases)
	printResult(os.Stdout, result, useColor())
}

func useColor() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type CaseFile struct {
	Cases []Case `yaml:"cases"`
}

// Case calls the Function constructor with Args and checks the outcome. If
// Bind is present, the expectations apply to the bound function instead.
type Case struct {
	Name   string `yaml:"name"`
	Args   []any  `yaml:"args"`
	New    bool   `yaml:"new"`
	Bind   *Bind  `yaml:"bind"`
	Expect Expect `yaml:"expect"`
}

type Bind struct {
	This any   `yaml:"this"`
	Args []any `yaml:"args"`
}

type Expect struct {
	Source   *string `yaml:"source"`
	Name     *string `yaml:"name"`
	Length   *int    `yaml:"length"`
	ToString *string `yaml:"toString"`
	// Error is the name of the expected thrown error, e.g. SyntaxError
	Error string `yaml:"error"`
}

func readCaseFile(filename string) ([]Case, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return parseCases(buf)
}

func parseCases(buf []byte) ([]Case, error) {
	var cf CaseFile
	if err := yaml.Unmarshal(buf, &cf); err != nil {
		return nil, err
	}
	for i, c := range cf.Cases {
		if c.Name == "" {
			return nil, fmt.Errorf("case #%d has no name", i+1)
		}
	}
	return cf.Cases, nil
}

type RunManyResult struct {
	Cases []CaseOutcome
}

type CaseOutcome struct {
	Name string
	VMID string

	Success bool
	Error   error
}

// runMany runs every case on its own VM, in parallel.
func runMany(cfg jsfunc.Config, cases []Case) (result RunManyResult) {
	result.Cases = make([]CaseOutcome, 0, len(cases))

	sink := make(chan CaseOutcome)
	for _, c := range cases {
		c := c // per-iteration copy; go.mod targets go 1.21 (pre-1.22 loop semantics)
		go func() {
			sink <- runCase(cfg, c)
		}()
	}

	for i := 0; i < len(cases); i++ {
		result.Cases = append(result.Cases, <-sink)
	}
	return
}

func printResult(w io.Writer, result RunManyResult, color bool) {
	var successes, failures []CaseOutcome
	for _, co := range result.Cases {
		if co.Success {
			successes = append(successes, co)
		} else {
			failures = append(failures, co)
		}
	}

	header := func(label string, count int, ansi string) {
		if color {
			fmt.Fprintf(w, "\x1b[%sm"+"group %s %d"+"\x1b[0m\n", ansi, label, count)
		} else {
			fmt.Fprintf(w, "group %s %d\n", label, count)
		}
	}

	header("SUCCESSES", len(successes), "32")
	for _, co := range successes {
		fmt.Fprintf(w, "case\t%s\t%s\n", co.Name, co.VMID)
	}

	header("FAILURES", len(failures), "31")
	for _, co := range failures {
		fmt.Fprintf(w, "case\t%s\t%s\n", co.Name, co.VMID)

		var errLines []string
		if co.Error != nil {
			errLines = strings.Split(co.Error.Error(), "\n")
		}
		for ndx, line := range errLines {
			if ndx == 0 {
				fmt.Fprintf(w, "error\t\t%s\n", line)
			} else {
				fmt.Fprintf(w, "ectx\t\t%s\n", line)
			}
		}
	}

	fmt.Fprintf(w, "summary\ttotal: %d; %d successes; %d failures\n", len(result.Cases), len(successes), len(failures))
}

func runCase(cfg jsfunc.Config, c Case) (co CaseOutcome) {
	co.Name = c.Name
	if *parseOnly {
		co.Error = parseCase(c)
	} else {
		vm, err := jsfunc.NewVM(cfg)
		if err != nil {
			co.Error = err
			return
		}
		co.VMID = vm.ID()
		co.Error = checkCase(vm, c)
	}
	co.Success = co.Error == nil
	return
}

// synthesizedSource mirrors the text the Function constructor compiles.
func synthesizedSource(args []any) string {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = fmt.Sprint(a)
	}
	body := ""
	if len(strs) > 0 {
		body = strs[len(strs)-1]
		strs = strs[:len(strs)-1]
	}
	return "function(" + strings.Join(strs, ",") + "){" + body + "}"
}

func parseCase(c Case) error {
	// parenthesised, so that the anonymous function parses as an expression
	err := tsparser.Check(c.Name, "("+synthesizedSource(c.Args)+")")
	wantErr := c.Expect.Error == "SyntaxError"
	switch {
	case err != nil && !wantErr:
		return err
	case err == nil && wantErr:
		return fmt.Errorf("expected a syntax error, but the source parsed")
	}
	return nil
}

func checkCase(vm *jsfunc.VM, c Case) error {
	args := make([]jsfunc.JSValue, len(c.Args))
	for i, a := range c.Args {
		v, err := toJSValue(a)
		if err != nil {
			return fmt.Errorf("arg %d: %w", i, err)
		}
		args[i] = v
	}

	var fn jsfunc.JSValue
	var err error
	if c.New {
		fn, err = vm.Construct(vm.FunctionConstructor(), args...)
	} else {
		fn, err = vm.Call(vm.FunctionConstructor(), jsfunc.JSUndefined{}, args...)
	}
	if err != nil {
		return matchError(vm, c.Expect.Error, err)
	}
	defer vm.Release(fn)

	if obj, isObj := fn.(*jsfunc.JSObject); isObj && obj.Template() != nil {
		tmpl := obj.Template()
		if *showAST {
			if err := jsfunc.DumpTemplate(os.Stdout, tmpl); err != nil {
				log.Printf("%s: dumping AST: %s", c.Name, err)
			}
		}
		if c.Expect.Source != nil && tmpl.Source != *c.Expect.Source {
			return fmt.Errorf("source: expected %q, got %q", *c.Expect.Source, tmpl.Source)
		}
	}

	if c.Bind != nil {
		bound, err := bindCase(vm, fn, c.Bind)
		if err != nil {
			return matchError(vm, c.Expect.Error, err)
		}
		defer vm.Release(bound)
		fn = bound
	}

	if c.Expect.Error != "" {
		return fmt.Errorf("expected %s, but nothing was thrown", c.Expect.Error)
	}
	return checkFunction(vm, fn, c.Expect)
}

func bindCase(vm *jsfunc.VM, fn jsfunc.JSValue, b *Bind) (jsfunc.JSValue, error) {
	this, err := toJSValue(b.This)
	if err != nil {
		return nil, fmt.Errorf("bind this: %w", err)
	}
	args := []jsfunc.JSValue{this}
	for i, a := range b.Args {
		v, err := toJSValue(a)
		if err != nil {
			return nil, fmt.Errorf("bind arg %d: %w", i, err)
		}
		args = append(args, v)
	}

	bindFn, err := vm.GetProperty(fn, jsfunc.NameStr("bind"))
	if err != nil {
		return nil, err
	}
	defer vm.Release(bindFn)
	return vm.Call(bindFn, fn, args...)
}

func checkFunction(vm *jsfunc.VM, fn jsfunc.JSValue, expect Expect) error {
	if expect.Name != nil {
		name, err := vm.GetProperty(fn, jsfunc.NameStr("name"))
		if err != nil {
			return err
		}
		defer vm.Release(name)
		if got, isStr := name.(jsfunc.JSString); !isStr || string(got) != *expect.Name {
			return fmt.Errorf("name: expected %q, got %v", *expect.Name, name)
		}
	}

	if expect.Length != nil {
		length, err := vm.GetProperty(fn, jsfunc.NameStr("length"))
		if err != nil {
			return err
		}
		defer vm.Release(length)
		if got, isNum := length.(jsfunc.JSNumber); !isNum || int(got) != *expect.Length {
			return fmt.Errorf("length: expected %d, got %v", *expect.Length, length)
		}
	}

	toString, err := vm.GetProperty(fn, jsfunc.NameStr("toString"))
	if err != nil {
		return err
	}
	defer vm.Release(toString)
	text, err := vm.Call(toString, fn)
	if err != nil {
		return err
	}
	defer vm.Release(text)
	str, isStr := text.(jsfunc.JSString)
	if !isStr {
		return fmt.Errorf("toString returned %v", text)
	}
	if expect.ToString != nil && string(str) != *expect.ToString {
		return fmt.Errorf("toString: expected %q, got %q", *expect.ToString, str)
	}
	// the rendering must never be valid source
	if tsparser.Check("toString", string(str)) == nil {
		return fmt.Errorf("toString output parses: %q", str)
	}
	return nil
}

// matchError reports whether err is the expected thrown error. A matched
// error is consumed.
func matchError(vm *jsfunc.VM, expected string, err error) error {
	var pexc jsfunc.ProgramException
	if !errors.As(err, &pexc) {
		return err
	}
	if expected == "" {
		return err
	}
	if pexc.Name() != expected {
		return fmt.Errorf("expected %s, got: %w", expected, err)
	}
	vm.ReleaseError(err)
	return nil
}

func toJSValue(v any) (jsfunc.JSValue, error) {
	switch v := v.(type) {
	case nil:
		return jsfunc.JSUndefined{}, nil
	case string:
		return jsfunc.JSString(v), nil
	case bool:
		return jsfunc.JSBoolean(v), nil
	case int:
		return jsfunc.JSNumber(v), nil
	case float64:
		return jsfunc.JSNumber(v), nil
	default:
		return nil, fmt.Errorf("unsupported value %#v", v)
	}
}
