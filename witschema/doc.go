// Package witschema imports WIT type definitions as shapes.
//
// The mapping keeps every value a WIT type can hold representable on the
// packed wire:
//
//	WIT                 Shape
//	───────────────────────────────────────────────────────
//	bool                bool
//	u8 u16 u32          integer [0, max]
//	u64                 integer [0, ∞)
//	s8 s16 s32          integer [min, max]
//	s64                 integer, unbounded
//	char                integer [0, 0x10FFFF]
//	string              string
//	list<u8>            bytes
//	record              record
//	tuple<...>          record with fields "0", "1", ...
//	variant             tagged union, payload-less cases are void
//	enum                tagged union of void alternatives
//	option<T>           tagged union none | some
//	result<T, E>        tagged union ok | err
//	type a = b          b
//
// Floats, other lists, flags, handles, futures and streams have no packed
// form and fail with an unsupported import error.
//
// Each *wit.TypeDef maps to exactly one shape, so a record referenced from
// several places is shared. Anonymous typedefs take their name from the
// position where they were first reached, for example "order.customer".
package witschema
