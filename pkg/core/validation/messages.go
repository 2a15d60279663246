package validation

// Literal issue messages. Format verbs are filled in by the checks.
const (
	msgMissingColumn     = "Missing required column: %s"
	msgDuplicateID       = "Duplicate %s: %s"
	msgInvalidIDFormat   = "Invalid %s format %q (expected %s followed by digits)"
	msgSlotsNotJSON      = "AvailableSlots is malformed: not valid JSON"
	msgSlotsNotArray     = "AvailableSlots must be a JSON array"
	msgSlotsNonPositive  = "AvailableSlots must contain only positive whole numbers"
	msgIntOutOfRange     = "%s must be an integer between %d and %d (got %q)"
	msgIntBelowMinimum   = "%s must be an integer of at least %d (got %q)"
	msgInvalidAttributes = "AttributesJSON is not valid JSON"
	msgEmptyClientName   = "ClientName must not be empty"
	msgInvalidPhases     = "PreferredPhases %q must be a JSON array, a range like \"1-3\" or a comma list of positive integers"
	msgUnknownGroupTag   = "GroupTag %q is not one of %s"
	msgUnknownTask       = "Requested task %s does not exist"
	msgInvalidTaskRef    = "Requested task ID %q has an invalid format (expected T followed by digits)"
	msgUncoveredSkills   = "No worker has the required skill(s): %s"
	msgMaxConcurrent     = "MaxConcurrent (%d) exceeds the number of qualified workers (%d)"
	msgOverloadedWorker  = "MaxLoadPerPhase (%d) exceeds the number of available slots (%d)"
	msgPhaseSaturated    = "Phase %d is oversaturated: total task duration %d exceeds worker capacity %d"
	msgCheckFailed       = "Check %s failed unexpectedly: %v"
)
