package migrations

// All returns the schema migrations in application order.
func All() []Migration {
	return []Migration{
		{
			ID: "0001_create_daily_calorie_entries",
			Statements: map[string][]string{
				"mysql": {
					"CREATE TABLE IF NOT EXISTS `daily_calorie_entries` (" +
						"`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
						"`date` DATE NOT NULL, " +
						"`total_calories` INT NOT NULL, " +
						"`created_at` DATETIME(3) NOT NULL, " +
						"`updated_at` DATETIME(3) NOT NULL, " +
						"UNIQUE KEY `idx_daily_calorie_entries_date` (`date`)" +
						") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
				},
				"postgres": {
					`CREATE TABLE IF NOT EXISTS "daily_calorie_entries" (` +
						`"id" BIGSERIAL PRIMARY KEY, ` +
						`"date" DATE NOT NULL, ` +
						`"total_calories" INTEGER NOT NULL, ` +
						`"created_at" TIMESTAMPTZ NOT NULL, ` +
						`"updated_at" TIMESTAMPTZ NOT NULL)`,
					`CREATE UNIQUE INDEX IF NOT EXISTS "idx_daily_calorie_entries_date" ON "daily_calorie_entries" ("date")`,
				},
			},
		},
		{
			ID: "0002_create_food_items",
			Statements: map[string][]string{
				"mysql": {
					"CREATE TABLE IF NOT EXISTS `food_items` (" +
						"`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
						"`daily_entry_id` BIGINT NOT NULL, " +
						"`food_name` TEXT NOT NULL, " +
						"`calories` INT NOT NULL, " +
						"`created_at` DATETIME(3) NOT NULL, " +
						"KEY `idx_food_items_daily_entry_id` (`daily_entry_id`), " +
						"CONSTRAINT `fk_food_items_daily_entry` FOREIGN KEY (`daily_entry_id`) " +
						"REFERENCES `daily_calorie_entries` (`id`) ON UPDATE CASCADE ON DELETE CASCADE" +
						") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
				},
				"postgres": {
					`CREATE TABLE IF NOT EXISTS "food_items" (` +
						`"id" BIGSERIAL PRIMARY KEY, ` +
						`"daily_entry_id" BIGINT NOT NULL ` +
						`REFERENCES "daily_calorie_entries" ("id") ON UPDATE CASCADE ON DELETE CASCADE, ` +
						`"food_name" TEXT NOT NULL, ` +
						`"calories" INTEGER NOT NULL, ` +
						`"created_at" TIMESTAMPTZ NOT NULL)`,
					`CREATE INDEX IF NOT EXISTS "idx_food_items_daily_entry_id" ON "food_items" ("daily_entry_id")`,
				},
			},
		},
		{
			ID: "0003_check_non_negative_calories",
			Statements: map[string][]string{
				// CHECK is enforced from MySQL 8.0.16; older servers parse and ignore it.
				"mysql": {
					"ALTER TABLE `daily_calorie_entries` ADD CONSTRAINT `chk_daily_calorie_entries_total` CHECK (`total_calories` >= 0)",
					"ALTER TABLE `food_items` ADD CONSTRAINT `chk_food_items_calories` CHECK (`calories` >= 0)",
				},
				"postgres": {
					`ALTER TABLE "daily_calorie_entries" ADD CONSTRAINT "chk_daily_calorie_entries_total" CHECK ("total_calories" >= 0)`,
					`ALTER TABLE "food_items" ADD CONSTRAINT "chk_food_items_calories" CHECK ("calories" >= 0)`,
				},
			},
		},
	}
}
