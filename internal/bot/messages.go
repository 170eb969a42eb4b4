package bot

const (
	msgWelcome          = "Welcome! 💇‍♂️ To find salons, please share your location."
	msgNeedLocation     = "I need your location to get started. Please use the button below."
	msgAskDetails       = `Thanks! Now, what service would you like and for when? (e.g., "haircut for tomorrow for Alex")`
	msgClarify          = "I'm sorry, I didn't catch that. Please tell me the service and the date."
	msgAskName          = "Got it. And what name should I use for the booking?"
	msgSearching        = "Perfect! Searching for salons..."
	msgNoSalonsFormat   = "Sorry, I couldn’t find any salons within %skm."
	msgSalonsHeader     = "Here are the best options. Please choose a salon to see available times:"
	msgSalonCaption     = "%s\nStarting Price: ₹%s"
	msgSlotsFormat      = "Here are the available slots for %s on %s. Please choose a time:"
	msgNoSlotsFormat    = "Sorry, %s has no available slots on %s. Would you like to try another day?"
	msgSalonDetailsGone = "Sorry, I couldn’t find details for that salon."
	msgSlotUnavailable  = "Sorry, that time is no longer available. Please choose another slot."
	msgHeardFormat      = "I heard: \"%s\""
	msgVoiceFailed      = "Sorry, I had trouble with that voice message."
	msgRateLimited      = "⚠️ You're sending messages too quickly. Please wait a moment."
	msgBusy             = "⏳ Still working on your previous message. Please wait a moment."

	msgSalonFetchFailed = "Sorry, an error occurred while fetching salon details."
	msgSaveFailed       = "Sorry, there was an error saving your booking."
	msgGenericError     = "Sorry, something went wrong. Please try again in a moment."

	callbackFetchingSlots = "Fetching slots..."
	callbackBookingFormat = "Booking for %s..."

	btnShareLocation = "📍 Share My Location"
	btnChooseSalon   = "Choose & See Times 🕒"

	slotDayLayout          = "January 2"
	confirmationTimeLayout = "Monday, January 2 at 3:04 PM"
)
