// Package process runs external command-line tools and captures their
// output. Cancellation sends SIGTERM to the whole process group and
// escalates to SIGKILL after a grace period.
package process
