// Command checkabi is a whole-program lint over cmd/kernel: it runs
// golang.org/x/tools/go/pointer's pointer analysis and flags any
// internal/syscall handler whose pointer-typed parameters can alias one
// of a fixed set of kernel-owned singletons, per SPEC_FULL.md's
// domain-stack entry for golang.org/x/tools/go/pointer. Unlike
// internal/trap's register-file boundary (a0-a2 cross as plain uint64s,
// never Go pointers), a handler that takes *proc.Pcb_t/*proc.Tcb_t/
// *trap.TrapContext_t is trusted with the kernel's own state by
// internal/syscall.Dispatch; this tool is the guard that trust is never
// accidentally widened by a future handler capturing a shared pointer it
// shouldn't.
package main

import (
	"flag"
	"fmt"
	"go/types"
	"os"
	"strings"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// sensitiveGlobals names the package-level kernel singletons no syscall
// handler's pointer parameters should be able to alias directly --
// aliasing one would let a future handler bypass internal/syscall's
// injected Dispatcher_t hooks and reach kernel state no user-triggered
// path should touch unmediated.
var sensitiveGlobals = []string{
	"rvkernel/internal/sched.cpu0",
	"rvkernel/internal/klog.level",
	"rvkernel/internal/frame.global",
}

func main() {
	pkgPath := flag.String("pkg", "rvkernel/cmd/kernel", "main package to analyze")
	flag.Parse()

	findings, err := run(*pkgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "checkabi: %v\n", err)
		os.Exit(1)
	}
	if len(findings) == 0 {
		fmt.Println("checkabi: no syscall handler aliases a kernel-owned singleton")
		return
	}
	for _, f := range findings {
		fmt.Println(f)
	}
	os.Exit(1)
}

func run(pkgPath string) ([]string, error) {
	cfg := &packages.Config{Mode: packages.LoadAllSyntax}
	initial, err := packages.Load(cfg, pkgPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", pkgPath, err)
	}
	if packages.PrintErrors(initial) > 0 {
		return nil, fmt.Errorf("package errors loading %s", pkgPath)
	}

	prog, pkgs := ssautil.AllPackages(initial, ssa.InstantiateGenerics)
	prog.Build()

	mains := ssautil.MainPackages(pkgs)
	if len(mains) == 0 {
		return nil, fmt.Errorf("%s is not a main package", pkgPath)
	}

	handlers := syscallHandlers(prog)
	if len(handlers) == 0 {
		return nil, fmt.Errorf("no internal/syscall sys* handlers found in the call graph")
	}

	queries := make(map[ssa.Value]struct{})
	for _, h := range handlers {
		for _, p := range h.fn.Params {
			if isPointerLike(p.Type()) {
				queries[p] = struct{}{}
			}
		}
	}

	result, err := pointer.Analyze(&pointer.Config{
		Mains:          mains,
		BuildCallGraph: false,
		Queries:        queries,
	})
	if err != nil {
		return nil, fmt.Errorf("pointer analysis: %w", err)
	}

	var findings []string
	for _, h := range handlers {
		for _, p := range h.fn.Params {
			ptr, ok := result.Queries[p]
			if !ok {
				continue
			}
			for _, label := range ptr.PointsTo().Labels() {
				name := labelGlobalName(label)
				if name == "" {
					continue
				}
				if contains(sensitiveGlobals, name) {
					findings = append(findings, fmt.Sprintf(
						"%s: parameter %s of %s may alias kernel-owned global %s",
						prog.Fset.Position(h.fn.Pos()), p.Name(), h.name, name))
				}
			}
		}
	}
	return findings, nil
}

type handler struct {
	name string
	fn   *ssa.Function
}

// syscallHandlers walks every function discovered in the program for
// *syscall.Dispatcher_t methods named sysXxx, the dispatch table
// internal/syscall.Dispatch's switch statement defines implicitly.
func syscallHandlers(prog *ssa.Program) []handler {
	var out []handler
	for fn := range ssautil.AllFunctions(prog) {
		if fn.Synthetic != "" || !strings.HasPrefix(fn.Name(), "sys") {
			continue
		}
		recv := fn.Signature.Recv()
		if recv == nil || !strings.Contains(recv.Type().String(), "syscall.Dispatcher_t") {
			continue
		}
		out = append(out, handler{name: fn.Name(), fn: fn})
	}
	return out
}

func isPointerLike(t types.Type) bool {
	switch t.Underlying().(type) {
	case *types.Pointer, *types.Interface:
		return true
	default:
		return false
	}
}

// labelGlobalName returns the fully-qualified name of label's value if it
// is a package-level *ssa.Global, or "" otherwise.
func labelGlobalName(label *pointer.Label) string {
	g, ok := label.Value().(*ssa.Global)
	if !ok {
		return ""
	}
	return g.Pkg.Pkg.Path() + "." + g.Name()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
