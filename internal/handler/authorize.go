package handler

import "github.com/harryhq/mail-manager/pkg/model"

// CanReadEmailMessage returns true if the user may see the message, which is the case for
// administrators, the user that created the message and members of the org the message was
// created under.
func CanReadEmailMessage(user *model.User, message *model.EmailMessage) bool {
	return user.IsAdministrator() || isOwner(user, message) || isOrgMember(user, message)
}

// CanWriteEmailMessage returns true if the user may act on the message, like queueing or
// duplicating it.
func CanWriteEmailMessage(user *model.User, message *model.EmailMessage) bool {
	return user.IsAdministrator() || isOrgAdmin(user, message) || isOwner(user, message)
}

func isOwner(user *model.User, message *model.EmailMessage) bool {
	return message.CreatedByID != nil && user.ID == *message.CreatedByID
}

func isOrgMember(user *model.User, message *model.EmailMessage) bool {
	return message.OrgName != nil && user.IsMemberOf(*message.OrgName)
}

func isOrgAdmin(user *model.User, message *model.EmailMessage) bool {
	return message.OrgName != nil && user.IsAdminOf(*message.OrgName)
}
