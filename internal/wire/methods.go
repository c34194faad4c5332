package wire

// Full gRPC method names of the sendlix.api.v1 services.
const (
	MethodGetJwtToken = "/sendlix.api.v1.Auth/GetJwtToken"

	MethodSendEmail      = "/sendlix.api.v1.Email/SendEmail"
	MethodSendEmlEmail   = "/sendlix.api.v1.Email/SendEmlEmail"
	MethodSendGroupEmail = "/sendlix.api.v1.Email/SendGroupEmail"

	MethodInsertEmailToGroup   = "/sendlix.api.v1.Group/InsertEmailToGroup"
	MethodRemoveEmailFromGroup = "/sendlix.api.v1.Group/RemoveEmailFromGroup"
	MethodCheckEmailInGroup    = "/sendlix.api.v1.Group/CheckEmailInGroup"
)
