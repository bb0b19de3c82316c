package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// ElectionsEndpoint is the endpoint for creating and listing elections
	ElectionsEndpoint = "/elections"
	// ElectionURLParam is the URL parameter holding the election ID
	ElectionURLParam = "electionId"
	// ElectionEndpoint is the endpoint to get the election info
	ElectionEndpoint = "/elections/{" + ElectionURLParam + "}"
	// ElectionCloseEndpoint is the endpoint for the owner early-close
	ElectionCloseEndpoint = "/elections/{" + ElectionURLParam + "}/close"
	// ElectionVotersEndpoint is the endpoint for adding voters to the roll
	ElectionVotersEndpoint = "/elections/{" + ElectionURLParam + "}/voters"
	// ElectionResultsEndpoint is the endpoint for the aggregate results
	ElectionResultsEndpoint = "/elections/{" + ElectionURLParam + "}/results"
	// TokensEndpoint is the endpoint for issuing a ballot token
	TokensEndpoint = "/tokens"
	// VotesEndpoint is the endpoint for submitting a vote
	VotesEndpoint = "/votes"
)
