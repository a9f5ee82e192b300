package model

// Attribute names as persisted, shared by all store drivers so field-level
// updates and the table layout agree on spelling.
const (
	AttrGoalID                = "GoalID"
	AttrUserID                = "UserID"
	AttrGoalName              = "GoalName"
	AttrGoalCategory          = "GoalCategory"
	AttrGoalDescription       = "GoalDescription"
	AttrTargetDate            = "TargetDate"
	AttrStartDate             = "StartDate"
	AttrPriority              = "Priority"
	AttrStatus                = "Status"
	AttrProgressPercentage    = "ProgressPercentage"
	AttrProgressDetails       = "ProgressDetails"
	AttrMilestones            = "Milestones"
	AttrObstacles             = "Obstacles"
	AttrSuccessCriteria       = "SuccessCriteria"
	AttrMotivationalMessage   = "MotivationalMessage"
	AttrLastEncouragementDate = "LastEncouragementDate"
	AttrCreatedAt             = "CreatedAt"
	AttrUpdatedAt             = "UpdatedAt"
)

// Well-known status labels. Status is free text and none of these are enforced.
const (
	StatusActive    = "Active"
	StatusPaused    = "Paused"
	StatusCompleted = "Completed"
	StatusAbandoned = "Abandoned"
)

// Goal is a user's tracked commitment record. Timestamps are stored as
// ISO-8601 strings. MotivationalMessage and LastEncouragementDate stay empty
// until the first enrichment run and are written only by the enrichment job;
// every other field is owned by the CRUD service.
type Goal struct {
	GoalID                string `json:"goal_id" dynamodbav:"GoalID"`
	UserID                string `json:"user_id" dynamodbav:"UserID"`
	GoalName              string `json:"goal_name" dynamodbav:"GoalName"`
	GoalCategory          string `json:"goal_category" dynamodbav:"GoalCategory,omitempty"`
	GoalDescription       string `json:"goal_description" dynamodbav:"GoalDescription,omitempty"`
	TargetDate            string `json:"target_date" dynamodbav:"TargetDate,omitempty"`
	StartDate             string `json:"start_date" dynamodbav:"StartDate,omitempty"`
	Priority              string `json:"priority" dynamodbav:"Priority,omitempty"`
	Status                string `json:"status" dynamodbav:"Status,omitempty"`
	ProgressPercentage    int    `json:"progress_percentage" dynamodbav:"ProgressPercentage"`
	ProgressDetails       string `json:"progress_details" dynamodbav:"ProgressDetails,omitempty"`
	Milestones            string `json:"milestones" dynamodbav:"Milestones,omitempty"`
	Obstacles             string `json:"obstacles" dynamodbav:"Obstacles,omitempty"`
	SuccessCriteria       string `json:"success_criteria" dynamodbav:"SuccessCriteria,omitempty"`
	MotivationalMessage   string `json:"motivational_message" dynamodbav:"MotivationalMessage,omitempty"`
	LastEncouragementDate string `json:"last_encouragement_date" dynamodbav:"LastEncouragementDate,omitempty"`
	CreatedAt             string `json:"created_at" dynamodbav:"CreatedAt"`
	UpdatedAt             string `json:"updated_at" dynamodbav:"UpdatedAt"`
}
