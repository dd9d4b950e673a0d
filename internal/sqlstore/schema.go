package sqlstore

// Schema DDL shared by every SQL backend. Optional references (parent
// feature, task feature, assignee) are stored as empty strings. Timestamps
// are RFC 3339 text in UTC.
const (
	createProjects = `CREATE TABLE IF NOT EXISTS projects (
    project_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    admin_id TEXT NOT NULL,
    admin_username TEXT NOT NULL,
    status TEXT NOT NULL,
    code TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

	createProjectTeam = `CREATE TABLE IF NOT EXISTS project_team (
    project_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    PRIMARY KEY (project_id, user_id)
)`

	createProjectTasks = `CREATE TABLE IF NOT EXISTS project_tasks (
    project_id TEXT NOT NULL,
    task_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    PRIMARY KEY (project_id, task_id)
)`

	createFeatures = `CREATE TABLE IF NOT EXISTS features (
    feature_id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    parent_feature_id TEXT NOT NULL,
    name TEXT NOT NULL,
    assigned_to TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

	createTasks = `CREATE TABLE IF NOT EXISTS tasks (
    task_id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    feature_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    status TEXT NOT NULL,
    assigned_to TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

	createUsers = `CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

	createUserProjects = `CREATE TABLE IF NOT EXISTS user_project_refs (
    user_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    role TEXT NOT NULL,
    seq INTEGER NOT NULL,
    PRIMARY KEY (user_id, project_id)
)`

	createUserTasks = `CREATE TABLE IF NOT EXISTS user_tasks (
    user_id TEXT NOT NULL,
    task_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    PRIMARY KEY (user_id, task_id)
)`
)

// Index DDL for the lookups the engine performs.
const (
	idxProjectTeamUser  = `CREATE INDEX IF NOT EXISTS idx_project_team_user ON project_team(user_id)`
	idxProjectTasksTask = `CREATE INDEX IF NOT EXISTS idx_project_tasks_task ON project_tasks(task_id)`
	idxFeaturesProject  = `CREATE INDEX IF NOT EXISTS idx_features_project ON features(project_id)`
	idxFeaturesParent   = `CREATE INDEX IF NOT EXISTS idx_features_parent ON features(parent_feature_id)`
	idxTasksProject     = `CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`
	idxTasksFeature     = `CREATE INDEX IF NOT EXISTS idx_tasks_feature ON tasks(feature_id)`
	idxTasksAssignee    = `CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assigned_to)`
	idxUserProjectsProj = `CREATE INDEX IF NOT EXISTS idx_user_project_refs_project ON user_project_refs(project_id)`
	idxUserTasksTask    = `CREATE INDEX IF NOT EXISTS idx_user_tasks_task ON user_tasks(task_id)`
)

// Roles in user_project_refs.
const (
	roleAdmin  = "admin"
	roleMember = "member"
)

var schemaDDL = []string{
	createProjects,
	createProjectTeam,
	createProjectTasks,
	createFeatures,
	createTasks,
	createUsers,
	createUserProjects,
	createUserTasks,
}

var indexDDL = []string{
	idxProjectTeamUser,
	idxProjectTasksTask,
	idxFeaturesProject,
	idxFeaturesParent,
	idxTasksProject,
	idxTasksFeature,
	idxTasksAssignee,
	idxUserProjectsProj,
	idxUserTasksTask,
}
