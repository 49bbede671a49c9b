// Package pidfile implements the on-disk marker file protocol that enforces
// single-instance execution across process restarts and crashes.
//
// A pidfile is claimed with Open, which takes a non-blocking exclusive
// flock(2) on the file. The lock, not the file content, is the authority on
// liveness: a crashed owner leaves its pid behind but releases the lock when
// the kernel closes its descriptors. Claimants therefore never need to probe
// processes or guess at staleness.
//
// A successful claim yields a File handle that records the (device, inode)
// identity of the locked descriptor. Every later operation re-checks that
// identity; a mismatch means the on-disk file was replaced behind an open
// descriptor, which is caller misuse and surfaces as a ProgrammingError
// rather than an ordinary race.
package pidfile
