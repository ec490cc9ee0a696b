// Package hosts provides ready-made host capabilities for scripts.
//
// Implements:
//   - env      - Environment variables, arguments and working directory
//   - clock    - Wall clock and monotonic time
//   - random   - Secure and insecure random values
//   - terminal - Terminal detection for stdin, stdout and stderr
//
// Register them on a runtime:
//
//	if err := hosts.RegisterDefaults(rt.Hosts(), hosts.Options{Args: os.Args[1:]}); err != nil {
//	    log.Fatal(err)
//	}
//
// Scripts then call e.g. env.get("HOME") or clock.now().
package hosts
