// Package trapasm holds the raw register-file save/restore and privilege
// transition that mod.rs's trap.S (__alltraps/__restore) performs in real
// rCore-tutorial builds. trap.S itself was not captured by this retrieval
// (only mod.rs's Rust glue code was), so the instruction sequence is
// reconstructed from mod.rs's field accesses into TrapContext plus the
// standard __alltraps/__restore shape every rCore-tutorial chapter ships:
// swap sp/sscratch, spill the 31 general registers callee can't assume are
// preserved, load the three kernel-return fields, and sret/satp-switch
// across the user/kernel boundary.
//
// TrapReturn is the only entry point a Go caller (cmd/kernel's trap-return
// path) needs: it is the __restore half. The __alltraps half -- the code
// actually installed at stvec, which the hart jumps to on any trap taken
// from user mode -- has no Go-callable shape, since nothing calls it; the
// hart vectors to it directly with no stack and no saved registers. That
// half is written in raw assembly purely as the trap vector TrapReturn
// arranges to resume into, and its address is exposed through EntryAddr
// for cmd/kernel to program into stvec at boot.
package trapasm
