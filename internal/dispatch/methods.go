package dispatch

// Method names understood by the dispatcher.
const (
	MethodSendMessage                        = "sendMessage"
	MethodResendMessage                      = "resendMessage"
	MethodAckMessageRead                     = "ackMessageRead"
	MethodAckGroupMessageRead                = "ackGroupMessageRead"
	MethodAckConversationRead                = "ackConversationRead"
	MethodRecallMessage                      = "recallMessage"
	MethodGetMessage                         = "getMessage"
	MethodGetConversation                    = "getConversation"
	MethodGetThreadConversation              = "getThreadConversation"
	MethodMarkAllChatMsgAsRead               = "markAllChatMsgAsRead"
	MethodGetUnreadMessageCount              = "getUnreadMessageCount"
	MethodUpdateChatMessage                  = "updateChatMessage"
	MethodDownloadAttachment                 = "downloadAttachment"
	MethodDownloadThumbnail                  = "downloadThumbnail"
	MethodDownloadAttachmentInCombine        = "downloadMessageAttachmentInCombine"
	MethodDownloadThumbnailInCombine         = "downloadMessageThumbnailInCombine"
	MethodImportMessages                     = "importMessages"
	MethodLoadAllConversations               = "loadAllConversations"
	MethodGetConversationsFromServer         = "getConversationsFromServer"
	MethodFetchConversationsWithPage         = "fetchConversationsFromServerWithPage"
	MethodGetConversationsWithCursor         = "getConversationsFromServerWithCursor"
	MethodGetPinnedConversationsWithCursor   = "getPinnedConversationsFromServerWithCursor"
	MethodFetchConversationsByOptions        = "fetchConversationsByOptions"
	MethodDeleteConversation                 = "deleteConversation"
	MethodDeleteRemoteConversation           = "deleteRemoteConversation"
	MethodFetchHistoryMessages               = "fetchHistoryMessages"
	MethodFetchHistoryMessagesByOptions      = "fetchHistoryMessagesByOptions"
	MethodSearchChatMsgFromDB                = "searchChatMsgFromDB"
	MethodAsyncFetchGroupAcks                = "asyncFetchGroupAcks"
	MethodDeleteMessagesBeforeTimestamp      = "deleteMessagesBeforeTimestamp"
	MethodRemoveMessagesFromServerWithMsgIDs = "removeMessagesFromServerWithMsgIds"
	MethodRemoveMessagesFromServerWithTs     = "removeMessagesFromServerWithTs"
	MethodTranslateMessage                   = "translateMessage"
	MethodFetchSupportedLanguages            = "fetchSupportedLanguages"
	MethodAddReaction                        = "addReaction"
	MethodRemoveReaction                     = "removeReaction"
	MethodFetchReactionList                  = "fetchReactionList"
	MethodFetchReactionDetail                = "fetchReactionDetail"
	MethodReportMessage                      = "reportMessage"
	MethodPinConversation                    = "pinConversation"
	MethodModifyMessage                      = "modifyMessage"
	MethodDownloadAndParseCombineMessage     = "downloadAndParseCombineMessage"
	MethodAddConversationsMark               = "addRemoteAndLocalConversationsMark"
	MethodDeleteConversationsMark            = "deleteRemoteAndLocalConversationsMark"
	MethodDeleteAllMessageAndConversation    = "deleteAllMessageAndConversation"
	MethodPinMessage                         = "pinMessage"
	MethodUnpinMessage                       = "unpinMessage"
	MethodFetchPinnedMessages                = "fetchPinnedMessages"
)
