//go:build amd64

package block

import "golang.org/x/sys/cpu"

// hasAVX2 mirrors coregex's simd package dispatch gate (simd/memchr_amd64.go's
// hasAVX2 = cpu.X86.HasAVX2): detect the CPU feature even though, without an
// assembler in this module, every block-width tier below is backed by the
// same portable Go core (see DESIGN.md). The detection stays genuine so
// DefaultWidth's choice reflects the running hardware, not a guess.
var hasAVX2 = cpu.X86.HasAVX2
