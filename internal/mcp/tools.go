package mcp

import "github.com/mark3labs/mcp-go/mcp"

var stateToolDef = mcp.NewTool("team_state",
	mcp.WithDescription("Show the team builder state: search text, error message, selected Pokémon (with a Markdown card) and the team."),
)

var setSearchToolDef = mcp.NewTool("team_set_search",
	mcp.WithDescription("Replace the search text verbatim without searching."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("New search text"),
	),
)

var searchToolDef = mcp.NewTool("team_search",
	mcp.WithDescription("Search the catalog by name and select the result. Uses the stored search text unless text is given. Blank text does nothing."),
	mcp.WithString("text",
		mcp.Description("Optional search text to set before searching"),
	),
)

var randomToolDef = mcp.NewTool("team_random",
	mcp.WithDescription("Fetch a random Pokémon and select it."),
)

var addToolDef = mcp.NewTool("team_add",
	mcp.WithDescription("Add the last fetched or picked Pokémon to the team (max 6, no duplicates)."),
)

var removeToolDef = mcp.NewTool("team_remove",
	mcp.WithDescription("Remove a Pokémon from the team by id. Removing a non-member is not an error."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Catalog id of the team member"),
	),
)

var selectToolDef = mcp.NewTool("team_select",
	mcp.WithDescription("Select a team member by id to view its details."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Catalog id of the team member"),
	),
)
