// Package shape defines the abstract data shapes every codec is derived
// from.
//
// A Shape says what a value is, not how it is stored: a record of named
// fields, a tagged union of alternatives, an integer with optional bounds,
// and a handful of primitives. Memory and wire layouts are chosen
// separately when a shape is bound (package codec).
//
// # Shape Cases
//
//	Void      no data
//	Bool      one bit
//	Integer   optional inclusive [Min, Max]; signed unless Min >= 0
//	String    text
//	Bytes     opaque bytes
//	Unknown   placeholder for alternatives a schema does not know
//	Record    name + ordered fields + deprecated field names
//	Union     name + ordered alternatives + deprecated positions
//
// # Schema Evolution
//
// Field order and alternative order are wire-stable. Appending fields to a
// record or alternatives to a union keeps old payloads readable by new
// decoders and new payloads skippable by old ones. Removed fields go into
// Deprecated so their names are never reused; retired alternatives stay in
// place (usually as Void) and their positions go into Deprecated.
//
//	notification := shape.NewTaggedUnion("NotificationSettings",
//	    shape.Alt("V0", shape.NewRecord("NotificationSettingsV0",
//	        shape.F("throttleMs", shape.UInt()),
//	    )),
//	)
//
// Shapes are immutable once built and are shared by pointer; a record
// referenced from several places is one definition.
package shape
