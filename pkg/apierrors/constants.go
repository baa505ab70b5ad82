package apierrors

const (
	MsgInvalidRequest       = "invalidRequest"
	MsgUnauthorized         = "unauthorized"
	MsgInternal             = "internalError"
	MsgInvalidID            = "invalidID"
	MsgProjectNotFound      = "projectNotFound"
	MsgTaskNotFound         = "taskNotFound"
	MsgCommentNotFound      = "commentNotFound"
	MsgMemberNotFound       = "memberNotFound"
	MsgInvitationNotFound   = "invitationNotFound"
	MsgInvitationExpired    = "invitationExpired"
	MsgInvitationAnswered   = "invitationAnswered"
	MsgNotificationNotFound = "notificationNotFound"
	MsgUserNotFound         = "userNotFound"
	MsgForbidden            = "forbidden"
	MsgInvalidStatus        = "invalidStatus"
	MsgInvalidPriority      = "invalidPriority"
	MsgInvalidRole          = "invalidRole"
	MsgInvalidParent        = "invalidParent"
	MsgAlreadyMember        = "alreadyMember"
	MsgCannotRemoveOwner    = "cannotRemoveOwner"
	MsgDeleteNotFound       = "deleteNotFound"
	MsgDeleteForbidden      = "deleteForbidden"
	MsgDeleteFailed         = "deleteFailed"
	MsgDeleteMisconfigured  = "deleteMisconfigured"
)
