package dialog

import "github.com/ab7289/dining-concierge/internal/model"

// Directive constructors. All four are pure: identical inputs produce
// identical directives, and the caller's slot snapshot is echoed back
// unchanged.

// ElicitSlot directs the runtime to re-prompt for exactly one named slot.
func ElicitSlot(sessionAttrs map[string]string, intentName string, slots model.Slots, slotToElicit, message string) model.DialogDirective {
	return model.DialogDirective{
		SessionAttributes: sessionAttrs,
		DialogAction: model.DialogAction{
			Type:         model.ActionElicitSlot,
			IntentName:   intentName,
			Slots:        &slots,
			SlotToElicit: slotToElicit,
			Message:      model.PlainText(message),
		},
	}
}

// ConfirmIntent requests explicit user confirmation before fulfillment.
// Available to flows that want a confirmation step; the dining flow does not
// require one.
func ConfirmIntent(sessionAttrs map[string]string, intentName string, slots model.Slots, message string) model.DialogDirective {
	return model.DialogDirective{
		SessionAttributes: sessionAttrs,
		DialogAction: model.DialogAction{
			Type:       model.ActionConfirmIntent,
			IntentName: intentName,
			Slots:      &slots,
			Message:    model.PlainText(message),
		},
	}
}

// Delegate hands control back to the runtime to pick the next slot to elicit.
func Delegate(sessionAttrs map[string]string, intentName string, slots model.Slots) model.DialogDirective {
	return model.DialogDirective{
		SessionAttributes: sessionAttrs,
		DialogAction: model.DialogAction{
			Type:       model.ActionDelegate,
			IntentName: intentName,
			Slots:      &slots,
		},
	}
}

// Close terminates the dialog turn. Close directives always carry the
// terminal fulfillment state "Fulfilled".
func Close(sessionAttrs map[string]string, intentName, message string) model.DialogDirective {
	return model.DialogDirective{
		SessionAttributes: sessionAttrs,
		DialogAction: model.DialogAction{
			Type:             model.ActionClose,
			IntentName:       intentName,
			FulfillmentState: model.FulfillmentStateFulfilled,
			Message:          model.PlainText(message),
		},
	}
}
