package errors

import "fmt"

var (
	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrVendorNotFound       = fmt.Errorf("vendor not found")
	ErrEmptyContent         = fmt.Errorf("message content is empty")
	ErrVendorRequired       = fmt.Errorf("vendor_id is required for a vendor sender")
	ErrInvalidSenderType    = fmt.Errorf("sender_type must be user or vendor")
	ErrWorkerPanic          = fmt.Errorf("worker panic")
)
