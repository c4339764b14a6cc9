package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/e1011/cdcl/internal/dimacs"
	"github.com/e1011/cdcl/internal/gen"
	"github.com/e1011/cdcl/internal/sat"
)

// Exit codes follow the DIMACS competition convention.
const (
	exitSat     = 10
	exitUnsat   = 20
	exitUnknown = 0
	exitError   = 1
)

var log = logrus.New()

// exitCode is set by the subcommands and applied once cobra returns, so that
// deferred cleanups (profiles, file handles) run before the process exits.
var exitCode = exitUnknown

func main() {
	root := &cobra.Command{
		Use:           "cdcl",
		Short:         "A CDCL SAT solver and random CNF generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(solveCommand())
	root.AddCommand(genCommand())

	if err := root.Execute(); err != nil {
		log.Error(err)
		exitCode = exitError
	}
	os.Exit(exitCode)
}

type solveConfig struct {
	instanceFile    string
	gzipped         bool
	heuristic       string
	restartPolicy   string
	restartInterval int
	maxConflicts    int64
	timeout         time.Duration
	stats           bool
	cpuProfile      bool
	memProfile      bool
}

func solveCommand() *cobra.Command {
	cfg := &solveConfig{}
	cmd := &cobra.Command{
		Use:   "solve [file]",
		Short: "Decide the satisfiability of a DIMACS CNF instance",
		Long: "Decide the satisfiability of a DIMACS CNF instance. If no file is " +
			"given, the instance is read from test.cnf. On satisfiable instances " +
			"the assignment is printed in DIMACS convention and the exit code is " +
			"10; on unsatisfiable instances the exit code is 20.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.instanceFile = "test.cnf"
			if len(args) == 1 && args[0] != "" {
				cfg.instanceFile = args[0]
			}
			return runSolve(cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.gzipped, "gzip", false, "read the instance as a gzipped file")
	cmd.Flags().StringVar(&cfg.heuristic, "heuristic", "vsids", "decision heuristic (vsids, jw)")
	cmd.Flags().StringVar(&cfg.restartPolicy, "restarts", "fixed", "restart policy (fixed, luby)")
	cmd.Flags().IntVar(&cfg.restartInterval, "restart-interval", 100, "conflicts between restarts (Luby unit length)")
	cmd.Flags().Int64Var(&cfg.maxConflicts, "max-conflicts", -1, "stop after this many conflicts (-1: no limit)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", -1, "stop after this much time (-1: no limit)")
	cmd.Flags().BoolVar(&cfg.stats, "stats", false, "print search statistics as comment lines")
	cmd.Flags().BoolVar(&cfg.cpuProfile, "cpuprof", false, "save pprof CPU profile in cpuprof")
	cmd.Flags().BoolVar(&cfg.memProfile, "memprof", false, "save pprof memory profile in memprof")

	return cmd
}

func solverOptions(cfg *solveConfig) (sat.Options, error) {
	opts := sat.DefaultOptions

	switch cfg.heuristic {
	case "vsids":
		opts.Heuristic = sat.HeuristicVSIDS
	case "jw":
		opts.Heuristic = sat.HeuristicJW
	default:
		return opts, fmt.Errorf("unknown heuristic %q", cfg.heuristic)
	}

	switch cfg.restartPolicy {
	case "fixed":
		opts.RestartPolicy = sat.RestartFixed
	case "luby":
		opts.RestartPolicy = sat.RestartLuby
	default:
		return opts, fmt.Errorf("unknown restart policy %q", cfg.restartPolicy)
	}

	opts.RestartInterval = cfg.restartInterval
	opts.MaxConflicts = cfg.maxConflicts
	opts.Timeout = cfg.timeout
	opts.Verbose = cfg.stats
	return opts, nil
}

func runSolve(cfg *solveConfig) error {
	opts, err := solverOptions(cfg)
	if err != nil {
		return err
	}

	if cfg.cpuProfile {
		f, err := os.Create("cpuprof")
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	instance, err := dimacs.ParseFile(cfg.instanceFile, cfg.gzipped)
	if err != nil {
		return errors.Wrap(err, "could not parse instance")
	}

	s := sat.NewSolver(opts)
	if err := dimacs.Instantiate(s, instance); err != nil {
		return errors.Wrap(err, "could not load instance")
	}

	if cfg.stats {
		fmt.Printf("c variables:  %d\n", instance.Variables)
		fmt.Printf("c clauses:    %d\n", len(instance.Clauses))
	}

	t := time.Now()
	status := s.Solve()
	elapsed := time.Since(t)

	if cfg.stats {
		fmt.Printf("c time (sec): %f\n", elapsed.Seconds())
		fmt.Printf("c conflicts:  %d (%.2f /sec)\n", s.TotalConflicts, float64(s.TotalConflicts)/elapsed.Seconds())
	}

	switch status {
	case sat.True:
		fmt.Println("SAT")
		fmt.Println(formatModel(s.Models[len(s.Models)-1]))
		exitCode = exitSat
	case sat.False:
		fmt.Println("UNSAT")
		exitCode = exitUnsat
	default:
		fmt.Println("UNKNOWN")
		exitCode = exitUnknown
	}

	if cfg.memProfile {
		f, err := os.Create("memprof")
		if err != nil {
			return err
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}

	return nil
}

// formatModel returns the model as a line of DIMACS literals for variables
// 1..N in order, terminated by 0.
func formatModel(model []bool) string {
	buf := make([]byte, 0, len(model)*3+2)
	for i, b := range model {
		v := i + 1
		if !b {
			v = -v
		}
		buf = strconv.AppendInt(buf, int64(v), 10)
		buf = append(buf, ' ')
	}
	buf = append(buf, '0')
	return string(buf)
}

func genCommand() *cobra.Command {
	var outDir string
	var seed int64

	cmd := &cobra.Command{
		Use:   "gen num_vars num_clauses min_len max_len num_files",
		Short: "Generate random CNF instances labeled by a reference solver",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]int, 5)
			for i, arg := range args {
				v, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid argument %q: expected an integer", arg)
				}
				values[i] = v
			}

			cfg := gen.Config{
				NumVars:    values[0],
				NumClauses: values[1],
				MinLen:     values[2],
				MaxLen:     values[3],
				NumFiles:   values[4],
				OutDir:     outDir,
				Seed:       seed,
			}

			paths, err := gen.Generate(cfg)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"files": len(paths),
				"dir":   outDir,
			}).Info("generated instances")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "generated", "output directory")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")

	return cmd
}
