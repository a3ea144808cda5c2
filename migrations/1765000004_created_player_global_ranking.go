package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"createRule": null,
			"deleteRule": null,
			"fields": [
				{
					"autogeneratePattern": "",
					"hidden": false,
					"id": "text3208210256",
					"max": 0,
					"min": 0,
					"name": "id",
					"pattern": "",
					"presentable": false,
					"primaryKey": true,
					"required": true,
					"system": true,
					"type": "text"
				}
			],
			"id": "pbc_1765000004",
			"indexes": [],
			"listRule": "",
			"name": "player_global_ranking",
			"system": false,
			"type": "view",
			"updateRule": null,
			"viewQuery": "SELECT \n  player_name as id,\n  player_name,\n  COALESCE(SUM(frags), 0) as total_frags,\n  COALESCE(SUM(deaths), 0) as total_deaths,\n  COALESCE(SUM(friendly_kills), 0) as total_friendly_kills,\n  COUNT(*) as matches_played,\n  COALESCE(SUM(CASE WHEN is_winner THEN 1 ELSE 0 END), 0) as wins,\n  COALESCE(SUM(frags), 0) - COALESCE(SUM(friendly_kills), 0) as total_score\nFROM match_players\nGROUP BY player_name;",
			"viewRule": ""
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_1765000004")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
