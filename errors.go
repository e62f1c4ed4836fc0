package nbor

import "errors"

var (
	// ErrNilIO indicates that NewReader/NewWriter was called with a nil
	// io.Reader/io.Writer.
	ErrNilIO = errors.New("nbor: NewReader/NewWriter called with a nil io.Reader/io.Writer")

	// ErrUnexpectedLength indicates the byte source ended before all bytes of a
	// value were available. It maps the underlying end-of-input signal so that a
	// truncated payload is distinguishable from a clean end-of-stream.
	ErrUnexpectedLength = errors.New("nbor: unexpected length of input")

	// ErrTrailingData is returned by the root decode entry points when bytes
	// remain after the value has been fully decoded.
	ErrTrailingData = errors.New("nbor: not all bytes read")

	// ErrInvalidBool indicates a boolean byte other than 0 or 1.
	ErrInvalidBool = errors.New("nbor: invalid bool representation")

	// ErrInvalidOption indicates an optional-value tag byte other than 0 or 1.
	ErrInvalidOption = errors.New("nbor: invalid option representation, the tag byte must be 0 or 1")

	// ErrInvalidResult indicates a result tag byte other than 0 or 1.
	ErrInvalidResult = errors.New("nbor: invalid result representation, the tag byte must be 0 or 1")

	// ErrInvalidDiscriminant indicates an enum tag byte that matches no
	// registered variant.
	ErrInvalidDiscriminant = errors.New("nbor: invalid discriminant")

	// ErrNaN rejects NaN floats in both directions. Signaling NaNs on some
	// architectures are quiet NaNs on others, so NaNs are not portable.
	ErrNaN = errors.New("nbor: NaNs are not portable and cannot be encoded or decoded")

	// ErrZeroValue indicates a decoded zero for a non-zero-constrained integer.
	ErrZeroValue = errors.New("nbor: expected a non-zero value")

	// ErrIntOverflow indicates a stored platform-width integer that does not
	// fit the receiving platform's int/uint width.
	ErrIntOverflow = errors.New("nbor: overflow on machine with 32 bit int")

	// ErrLengthOverflow indicates a collection whose element count does not fit
	// the 4-byte length prefix.
	ErrLengthOverflow = errors.New("nbor: collection length does not fit in 32 bits")

	// ErrUnsortedKeys indicates a strict-order decode of a map or set whose
	// keys were not serialized in ascending order. Duplicate keys fail the same
	// check.
	ErrUnsortedKeys = errors.New("nbor: keys were not serialized in ascending order")

	// ErrZeroSizedElement rejects sequences and collections of zero-sized
	// element types. Their length prefix carries no corresponding byte cost and
	// would permit resource exhaustion.
	ErrZeroSizedElement = errors.New("nbor: collections of zero-sized elements are not allowed")

	// ErrInvalidUTF8 indicates a decoded string payload that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("nbor: string payload is not valid utf-8")

	// ErrUnsupportedType indicates a Go type the reflection layer cannot map
	// onto the wire format (channels, funcs, unregistered interfaces, ...).
	ErrUnsupportedType = errors.New("nbor: unsupported type")

	// ErrUnregisteredUnion indicates an interface value whose type was never
	// registered as a union.
	ErrUnregisteredUnion = errors.New("nbor: interface type is not a registered union")
)
