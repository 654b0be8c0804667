package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Auth ---

// registerRequest leaves required-field checks to the auth service so the
// first missing field is reported in form order.
type registerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"      validate:"omitempty,email"`
	CollegeID  string `json:"collegeId"`
	Password   string `json:"password"   validate:"omitempty,max=72"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Role       string `json:"role,omitempty"`
}

// loginRequest accepts the identifier under any of its historical names.
type loginRequest struct {
	Identifier string `json:"identifier,omitempty"`
	Email      string `json:"email,omitempty"`
	CollegeID  string `json:"collegeId,omitempty"`
	Password   string `json:"password"`
}

func (r loginRequest) identifier() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Email != "":
		return r.Email
	default:
		return r.CollegeID
	}
}

type userResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	CollegeID  string `json:"collegeId"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Role       string `json:"role"`
	CreatedAt  string `json:"createdAt"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type meResponse struct {
	User userResponse `json:"user"`
}

// --- Orders ---

type orderLineRequest struct {
	FoodID   string `json:"foodId"   validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0,lte=100"`
}

type createOrderRequest struct {
	Items []orderLineRequest `json:"items" validate:"required,min=1,dive"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=placed preparing ready completed cancelled"`
}

type listOrdersQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=placed preparing ready completed cancelled"`
	Page   int    `query:"page"   validate:"gte=0"`
	Limit  int    `query:"limit"  validate:"gte=0,lte=100"`
}

type orderItemResponse struct {
	FoodID    string `json:"foodId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Subtotal  int64  `json:"subtotal"`
}

type statusHistoryResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actorId,omitempty"`
}

type orderLinks struct {
	Self string `json:"self"`
}

type orderResponse struct {
	ID            string                  `json:"id"`
	PickupCode    string                  `json:"pickupCode"`
	UserID        string                  `json:"userId"`
	Items         []orderItemResponse     `json:"items"`
	Total         int64                   `json:"total"`
	Status        string                  `json:"status"`
	StatusHistory []statusHistoryResponse `json:"statusHistory"`
	CreatedAt     string                  `json:"createdAt"`
	UpdatedAt     string                  `json:"updatedAt"`
	Links         orderLinks              `json:"_links"`
}

type listOrdersResponse struct {
	Data []orderResponse `json:"data"`
}

type orderStatsResponse struct {
	ByStatus    map[string]int64 `json:"byStatus"`
	TotalOrders int64            `json:"totalOrders"`
	Revenue     int64            `json:"revenue"`
}

// --- Foods ---

type createFoodRequest struct {
	Name      string `json:"name"      validate:"required"`
	Price     int64  `json:"price"     validate:"required,gt=0"`
	Available *bool  `json:"available"`
}

type updateFoodRequest struct {
	Price     *int64 `json:"price"     validate:"omitempty,gt=0"`
	Available *bool  `json:"available"`
}

type foodResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Available bool   `json:"available"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}
