/*
Package errs provides custom error types and application-level error code constants.

These error codes identify business and system errors both inside the server and in
the events and HTTP responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrFormParseFailed indicates failure to parse multipart form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrNoFileUploaded indicates that an upload request carried no file part.
	ErrNoFileUploaded = 1008

	// ErrFileNotFound indicates that no uploaded file has the requested name.
	ErrFileNotFound = 1009
)

// 2xxx: Room Access Errors
//
// The messages of these codes are the literal reasons clients branch on.
const (
	// ErrRoomNotFound indicates that the requested room was never created.
	ErrRoomNotFound = 2103

	// ErrPasswordRequired indicates that the room needs a password and none was supplied.
	ErrPasswordRequired = 2301

	// ErrPasswordIncorrect indicates that the supplied password does not match the room's.
	ErrPasswordIncorrect = 2302
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates the storage backend rejected a read or write.
	ErrFileStorageFailed = 5001
)
