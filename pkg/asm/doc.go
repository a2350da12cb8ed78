// Package asm assembles GoCPU source text into a flat binary image and a
// symbol listing.
//
// Source is line oriented. Each line holds any number of labels
// ("name:"), then at most one instruction or directive, then an optional
// comment starting with ';' or "//":
//
//	START:  MOV R1, 5      ; load
//	        JMP START
//	msg:    .STRING "hi\n"
//
// Labels are case-sensitive. Mnemonics, register names and directives
// are not. Labels may be referenced before they are defined: the
// assembler lays out the whole program first and binds references in a
// second pass.
//
// Compile runs the whole pipeline and optionally rejects instructions
// missing from a Whitelist.
package asm
