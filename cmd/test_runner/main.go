package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// options mirrors the command line flags.
type options struct {
	verbose     bool
	short       bool
	race        bool
	cover       bool
	integration bool
	timeout     time.Duration
	run         string
	packages    string
}

func parseOptions(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("test_runner", flag.ContinueOnError)
	fs.BoolVar(&o.verbose, "v", false, "verbose output")
	fs.BoolVar(&o.short, "short", false, "run only short tests")
	fs.BoolVar(&o.race, "race", false, "enable the race detector (concurrent fetch paths)")
	fs.BoolVar(&o.cover, "cover", false, "report coverage per package")
	fs.BoolVar(&o.integration, "integration", false, "also run tests that download from data.binance.vision")
	fs.DurationVar(&o.timeout, "timeout", 5*time.Minute, "test timeout")
	fs.StringVar(&o.run, "run", "", "run only tests matching the regular expression")
	fs.StringVar(&o.packages, "pkg", "./...", "comma separated package patterns")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.integration && o.short {
		return o, fmt.Errorf("-integration and -short are mutually exclusive")
	}
	return o, nil
}

// goTestArgs builds the go test invocation.
func (o options) goTestArgs() []string {
	args := []string{"test"}
	if o.verbose {
		args = append(args, "-v")
	}
	if o.short {
		args = append(args, "-short")
	}
	if o.race {
		args = append(args, "-race")
	}
	if o.cover {
		args = append(args, "-cover")
	}
	// Network tests must never be served from the test cache.
	if o.integration {
		args = append(args, "-count=1")
	}
	args = append(args, fmt.Sprintf("-timeout=%s", o.timeout))
	if o.run != "" {
		args = append(args, fmt.Sprintf("-run=%s", o.run))
	}
	for _, p := range strings.Split(o.packages, ",") {
		if p = strings.TrimSpace(p); p != "" {
			args = append(args, p)
		}
	}
	return args
}

// env returns the environment for the test process.
func (o options) env(base []string) []string {
	env := append([]string(nil), base...)
	if o.integration {
		env = append(env, "BH_INTEGRATION=1")
	}
	return env
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	args := opts.goTestArgs()
	cmd := exec.Command("go", args...)
	cmd.Env = opts.env(os.Environ())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fmt.Printf("Running tests with args: %s\n", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Printf("Error running tests: %v\n", err)
		os.Exit(1)
	}
}
